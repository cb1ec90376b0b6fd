package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/ftdcunwind/errs"
)

// maxDepth bounds nesting while decoding so hostile input cannot exhaust the
// stack.
const maxDepth = 100

// AppendDocument appends the binary encoding of d to dst.
//
// Layout: uvarint field count, then per field a uvarint-prefixed name
// followed by the value. A value is a kind byte plus a kind-specific payload.
func AppendDocument(dst []byte, d Document) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(d.fields)))
	for _, f := range d.fields {
		dst = binary.AppendUvarint(dst, uint64(len(f.Name)))
		dst = append(dst, f.Name...)
		dst = AppendValue(dst, f.Value)
	}

	return dst
}

// AppendValue appends the binary encoding of v to dst.
func AppendValue(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.kind))

	switch v.kind {
	case KindMissing, KindNull:
	case KindBool:
		dst = append(dst, byte(v.num))
	case KindInt64, KindTime:
		dst = binary.AppendVarint(dst, int64(v.num)) //nolint:gosec
	case KindFloat64:
		dst = binary.LittleEndian.AppendUint64(dst, v.num)
	case KindString:
		dst = binary.AppendUvarint(dst, uint64(len(v.str)))
		dst = append(dst, v.str...)
	case KindBinary:
		dst = binary.AppendUvarint(dst, uint64(len(v.bin)))
		dst = append(dst, v.bin...)
	case KindDocument:
		dst = AppendDocument(dst, v.doc)
	case KindArray:
		dst = binary.AppendUvarint(dst, uint64(len(v.arr)))
		for i := range v.arr {
			dst = AppendValue(dst, v.arr[i])
		}
	}

	return dst
}

// MarshalBinary encodes d.
func (d Document) MarshalBinary() ([]byte, error) {
	return AppendDocument(nil, d), nil
}

// UnmarshalBinary decodes data into d. Trailing bytes are an error.
func (d *Document) UnmarshalBinary(data []byte) error {
	doc, n, err := DecodeDocument(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d trailing bytes after document", errs.ErrInvalidLength, len(data)-n)
	}
	*d = doc

	return nil
}

// DecodeDocument decodes one document from the front of data and returns it
// with the number of bytes consumed. Strings are copied; binary payloads
// alias data.
func DecodeDocument(data []byte) (Document, int, error) {
	r := decoder{data: data}
	doc, err := r.document(0)
	if err != nil {
		return Document{}, 0, err
	}

	return doc, r.off, nil
}

// DecodeValue decodes one value from the front of data.
func DecodeValue(data []byte) (Value, int, error) {
	r := decoder{data: data}
	v, err := r.value(0)
	if err != nil {
		return Value{}, 0, err
	}

	return v, r.off, nil
}

type decoder struct {
	data []byte
	off  int
}

func (r *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: bad uvarint at offset %d", errs.ErrTruncated, r.off)
	}
	r.off += n

	return v, nil
}

func (r *decoder) varint() (int64, error) {
	v, n := binary.Varint(r.data[r.off:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: bad varint at offset %d", errs.ErrTruncated, r.off)
	}
	r.off += n

	return v, nil
}

// length reads a uvarint length and checks it against the remaining input.
func (r *decoder) length() (int, error) {
	n, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(r.data)-r.off) {
		return 0, fmt.Errorf("%w: length %d exceeds remaining %d bytes", errs.ErrTruncated, n, len(r.data)-r.off)
	}

	return int(n), nil //nolint:gosec
}

func (r *decoder) bytes(n int) []byte {
	b := r.data[r.off : r.off+n : r.off+n]
	r.off += n

	return b
}

func (r *decoder) document(depth int) (Document, error) {
	if depth > maxDepth {
		return Document{}, fmt.Errorf("%w: nesting deeper than %d", errs.ErrInvalidLength, maxDepth)
	}

	count, err := r.length()
	if err != nil {
		return Document{}, err
	}

	fields := make([]Field, 0, count)
	for range count {
		n, err := r.length()
		if err != nil {
			return Document{}, err
		}
		name := string(r.bytes(n))

		v, err := r.value(depth)
		if err != nil {
			return Document{}, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: v})
	}

	return Document{fields: fields}, nil
}

func (r *decoder) value(depth int) (Value, error) {
	if r.off >= len(r.data) {
		return Value{}, fmt.Errorf("%w: missing kind byte", errs.ErrTruncated)
	}
	kind := Kind(r.data[r.off])
	r.off++

	switch kind {
	case KindMissing, KindNull:
		return Value{kind: kind}, nil
	case KindBool:
		if r.off >= len(r.data) {
			return Value{}, fmt.Errorf("%w: missing bool byte", errs.ErrTruncated)
		}
		b := r.data[r.off]
		r.off++

		return Bool(b != 0), nil
	case KindInt64, KindTime:
		i, err := r.varint()
		if err != nil {
			return Value{}, err
		}

		return Value{kind: kind, num: uint64(i)}, nil //nolint:gosec
	case KindFloat64:
		if len(r.data)-r.off < 8 {
			return Value{}, fmt.Errorf("%w: short double", errs.ErrTruncated)
		}

		return Float64(math.Float64frombits(binary.LittleEndian.Uint64(r.bytes(8)))), nil
	case KindString:
		n, err := r.length()
		if err != nil {
			return Value{}, err
		}

		return String(string(r.bytes(n))), nil
	case KindBinary:
		n, err := r.length()
		if err != nil {
			return Value{}, err
		}

		return Binary(r.bytes(n)), nil
	case KindDocument:
		d, err := r.document(depth + 1)
		if err != nil {
			return Value{}, err
		}

		return Doc(d), nil
	case KindArray:
		n, err := r.length()
		if err != nil {
			return Value{}, err
		}
		arr := make([]Value, 0, n)
		for range n {
			v, err := r.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, v)
		}

		return Array(arr...), nil
	default:
		return Value{}, fmt.Errorf("%w: %d", errs.ErrUnknownKind, kind)
	}
}
