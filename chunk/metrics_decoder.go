package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/ftdcunwind/compress"
	"github.com/arloliu/ftdcunwind/errs"
	ienc "github.com/arloliu/ftdcunwind/internal/encoding"
	"github.com/arloliu/ftdcunwind/record"
)

// DecodeMetrics expands a metrics payload into its samples, in the order
// they were added.
func DecodeMetrics(data []byte) ([]record.Document, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(header.Compression)
	if err != nil {
		return nil, err
	}

	body, err := codec.Decompress(data[HeaderSize:], int(header.RawSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress metrics body: %w", err)
	}

	ref, off, err := record.DecodeDocument(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reference sample: %w", err)
	}

	kinds, err := leafKinds(ref)
	if err != nil {
		return nil, err
	}
	if len(kinds) != int(header.LeafCount) {
		return nil, fmt.Errorf("%w: reference has %d leaves, header says %d", errs.ErrInvalidLength, len(kinds), header.LeafCount)
	}

	count := int(header.SampleCount)
	cols := columns{
		kinds:  kinds,
		ints:   make([][]int64, len(kinds)),
		floats: make([][]float64, len(kinds)),
	}

	for i, kind := range kinds {
		size, n := binary.Uvarint(body[off:])
		if n <= 0 || size > uint64(len(body)-off-n) {
			return nil, fmt.Errorf("%w: column %d length", errs.ErrTruncated, i)
		}
		off += n
		col := body[off : off+int(size)] //nolint:gosec
		off += int(size)                 //nolint:gosec

		if kind == record.KindFloat64 {
			cols.floats[i], err = ienc.DecodeGorilla(make([]float64, 0, count), col, count)
		} else {
			cols.ints[i], err = ienc.DecodeDelta(make([]int64, 0, count), col, count)
		}
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
	}

	if off != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes after columns", errs.ErrInvalidLength, len(body)-off)
	}

	samples := make([]record.Document, count)
	samples[0] = ref
	for i := 1; i < count; i++ {
		cols.cursor = 0
		samples[i] = cols.rebuild(ref, i)
	}

	return samples, nil
}

type columns struct {
	kinds  []record.Kind
	ints   [][]int64
	floats [][]float64
	cursor int
}

// rebuild copies ref, replacing each column leaf with its value for sample i.
func (c *columns) rebuild(ref record.Document, i int) record.Document {
	fields := make([]record.Field, ref.Len())

	for j := range fields {
		f := ref.Field(j)

		switch kind := f.Value.Kind(); {
		case kind == record.KindDocument:
			sub, _ := f.Value.Document()
			f.Value = record.Doc(c.rebuild(sub, i))
		case isColumnKind(kind):
			f.Value = c.value(i)
		}

		fields[j] = f
	}

	return record.NewDocument(fields...)
}

func (c *columns) value(i int) record.Value {
	k := c.cursor
	c.cursor++

	switch c.kinds[k] { //nolint:exhaustive
	case record.KindFloat64:
		return record.Float64(c.floats[k][i])
	case record.KindTime:
		return record.TimeMicros(c.ints[k][i])
	case record.KindBool:
		return record.Bool(c.ints[k][i] != 0)
	default:
		return record.Int64(c.ints[k][i])
	}
}
