package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/ftdcunwind/errs"
)

// Path is a parsed dotted field path such as "a.b.0.c".
type Path struct {
	segments []string
}

// ParsePath splits s on dots. Empty paths and empty segments are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty path", errs.ErrInvalidPath)
	}

	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if seg == "" {
			return Path{}, fmt.Errorf("%w: empty segment in %q", errs.ErrInvalidPath, s)
		}
	}

	return Path{segments: segments}, nil
}

// MustParsePath is ParsePath that panics on error. Intended for tests and
// constants.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

// IsZero reports whether p is the unset path.
func (p Path) IsZero() bool { return len(p.segments) == 0 }

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segments) }

// Segments returns a copy of the segments, outermost first.
func (p Path) Segments() []string { return append([]string(nil), p.segments...) }

// String joins the segments back into the dotted form.
func (p Path) String() string { return strings.Join(p.segments, ".") }

// Positions is the chain of indexes resolved by Lookup: a field index for
// each document level and an element index for each array level.
type Positions []int

// Lookup descends p inside d. It returns ok=false when a segment is absent or
// an intermediate value is neither a document nor, for numeric segments, an
// array.
func Lookup(d Document, p Path) (Value, Positions, bool) {
	if p.IsZero() {
		return Value{}, nil, false
	}

	pos := make(Positions, 0, len(p.segments))
	cur := Doc(d)

	for _, seg := range p.segments {
		switch cur.kind {
		case KindDocument:
			i := cur.doc.Index(seg)
			if i < 0 {
				return Value{}, nil, false
			}
			pos = append(pos, i)
			cur = cur.doc.fields[i].Value
		case KindArray:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.arr) {
				return Value{}, nil, false
			}
			pos = append(pos, i)
			cur = cur.arr[i]
		default:
			return Value{}, nil, false
		}
	}

	if cur.IsMissing() {
		return Value{}, nil, false
	}

	return cur, pos, true
}

// SetAt returns a copy of d with the value at pos replaced by v. Siblings and
// field order are preserved and only the containers along pos are copied.
//
// pos must come from a successful Lookup on d; SetAt panics otherwise.
func (d Document) SetAt(pos Positions, v Value) Document {
	if len(pos) == 0 {
		panic("record: SetAt with empty positions")
	}

	return setDoc(d, pos, v)
}

func setDoc(d Document, pos Positions, v Value) Document {
	i := pos[0]
	if len(pos) == 1 {
		return d.replace(i, v)
	}

	return d.replace(i, setValue(d.fields[i].Value, pos[1:], v))
}

func setValue(cur Value, pos Positions, v Value) Value {
	switch cur.kind {
	case KindDocument:
		return Doc(setDoc(cur.doc, pos, v))
	case KindArray:
		arr := append([]Value(nil), cur.arr...)
		if len(pos) == 1 {
			arr[pos[0]] = v
		} else {
			arr[pos[0]] = setValue(arr[pos[0]], pos[1:], v)
		}

		return Array(arr...)
	default:
		panic(fmt.Sprintf("record: SetAt through %s value", cur.kind))
	}
}
