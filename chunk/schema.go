package chunk

import (
	"fmt"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/record"
)

// isColumnKind reports whether leaves of kind k are stored as columns.
func isColumnKind(k record.Kind) bool {
	switch k { //nolint:exhaustive
	case record.KindInt64, record.KindTime, record.KindBool, record.KindFloat64:
		return true
	default:
		return false
	}
}

// flatten appends the column leaves of d to dst in depth-first order,
// checking that d has the shape of ref: same field names in the same order,
// same kinds, and equal non-column leaves. Arrays are not supported.
func flatten(dst []record.Value, ref, d record.Document, prefix string) ([]record.Value, error) {
	if d.Len() != ref.Len() {
		return dst, fmt.Errorf("%w: %s has %d fields, reference has %d", errs.ErrSchemaMismatch, location(prefix), d.Len(), ref.Len())
	}

	for i := range ref.Len() {
		rf, f := ref.Field(i), d.Field(i)
		name := join(prefix, rf.Name)

		if f.Name != rf.Name {
			return dst, fmt.Errorf("%w: field %d of %s is %q, reference has %q", errs.ErrSchemaMismatch, i, location(prefix), f.Name, rf.Name)
		}
		if f.Value.Kind() != rf.Value.Kind() {
			return dst, fmt.Errorf("%w: %s is %s, reference has %s", errs.ErrSchemaMismatch, name, f.Value.Kind(), rf.Value.Kind())
		}

		switch kind := rf.Value.Kind(); {
		case kind == record.KindArray:
			return dst, fmt.Errorf("%w: array at %s", errs.ErrUnsupportedKind, name)
		case kind == record.KindDocument:
			refSub, _ := rf.Value.Document()
			sub, _ := f.Value.Document()

			var err error
			if dst, err = flatten(dst, refSub, sub, name); err != nil {
				return dst, err
			}
		case isColumnKind(kind):
			dst = append(dst, f.Value)
		default:
			if !f.Value.Equal(rf.Value) {
				return dst, fmt.Errorf("%w: constant %s changed", errs.ErrSchemaMismatch, name)
			}
		}
	}

	return dst, nil
}

// leafKinds returns the kinds of ref's column leaves in depth-first order.
func leafKinds(ref record.Document) ([]record.Kind, error) {
	leaves, err := flatten(nil, ref, ref, "")
	if err != nil {
		return nil, err
	}

	kinds := make([]record.Kind, len(leaves))
	for i := range leaves {
		kinds[i] = leaves[i].Kind()
	}

	return kinds, nil
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}

func location(prefix string) string {
	if prefix == "" {
		return "sample"
	}

	return prefix
}
