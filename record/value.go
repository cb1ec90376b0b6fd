// Package record is the structured-record model that flows through the
// unwind stages: ordered documents of typed values, path lookup and
// copy-on-write path injection, plus binary and JSON encodings.
//
// Documents and values are immutable once built. Every "setter" returns a new
// Document that shares untouched subtrees with the original, so snapshots
// handed to downstream consumers never change under them.
package record

import (
	"math"
	"time"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNull
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindTime
	KindBinary
	KindDocument
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "long"
	case KindFloat64:
		return "double"
	case KindString:
		return "string"
	case KindTime:
		return "date"
	case KindBinary:
		return "binData"
	case KindDocument:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a tagged union. The zero Value is Missing.
type Value struct {
	kind Kind
	num  uint64 // bool, int64, float64 bits, time in unix microseconds
	str  string
	bin  []byte
	doc  Document
	arr  []Value
}

// Missing returns the absent value.
func Missing() Value { return Value{} }

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}

	return v
}

func Int64(i int64) Value { return Value{kind: KindInt64, num: uint64(i)} } //nolint:gosec

func Float64(f float64) Value { return Value{kind: KindFloat64, num: math.Float64bits(f)} }

func String(s string) Value { return Value{kind: KindString, str: s} }

// Time stores t with microsecond precision.
func Time(t time.Time) Value { return TimeMicros(t.UnixMicro()) }

// TimeMicros creates a time value from unix microseconds.
func TimeMicros(us int64) Value { return Value{kind: KindTime, num: uint64(us)} } //nolint:gosec

// Binary wraps b without copying; callers must not modify b afterwards.
func Binary(b []byte) Value { return Value{kind: KindBinary, bin: b} }

func Doc(d Document) Value { return Value{kind: KindDocument, doc: d} }

// Array wraps vs without copying; callers must not modify vs afterwards.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == KindMissing }

func (v Value) Bool() (bool, bool) { return v.num == 1, v.kind == KindBool }

func (v Value) Int64() (int64, bool) { return int64(v.num), v.kind == KindInt64 } //nolint:gosec

func (v Value) Float64() (float64, bool) {
	return math.Float64frombits(v.num), v.kind == KindFloat64
}

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}

	return time.UnixMicro(int64(v.num)).UTC(), true //nolint:gosec
}

// TimeMicros returns the unix microseconds of a time value.
func (v Value) TimeMicros() (int64, bool) { return int64(v.num), v.kind == KindTime } //nolint:gosec

func (v Value) Binary() ([]byte, bool) { return v.bin, v.kind == KindBinary }

func (v Value) Document() (Document, bool) { return v.doc, v.kind == KindDocument }

// Array returns the elements. The slice must not be modified.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Equal compares kind and content. Floats compare by bit pattern so NaN
// equals itself, matching what round trips through the codecs preserve.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindMissing, KindNull:
		return true
	case KindBool, KindInt64, KindFloat64, KindTime:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBinary:
		return string(v.bin) == string(o.bin)
	case KindDocument:
		return v.doc.Equal(o.doc)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}
