package record

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON renders d as a JSON object in field order. Times become
// {"$date": RFC 3339}, binary becomes {"$binary": base64}, non-finite
// doubles become strings and missing fields are skipped.
func (d Document) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	writeDocument(stream, d)
	if stream.Error != nil {
		return nil, stream.Error
	}

	return append([]byte(nil), stream.Buffer()...), nil
}

// MarshalJSON renders v with the same conventions as Document.MarshalJSON.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	writeValue(stream, v)
	if stream.Error != nil {
		return nil, stream.Error
	}

	return append([]byte(nil), stream.Buffer()...), nil
}

// String returns the JSON form of d, for logs and test failures.
func (d Document) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return "<invalid document: " + err.Error() + ">"
	}

	return string(b)
}

func writeDocument(s *jsoniter.Stream, d Document) {
	s.WriteObjectStart()
	first := true
	for _, f := range d.fields {
		if f.Value.IsMissing() {
			continue
		}
		if !first {
			s.WriteMore()
		}
		first = false
		s.WriteObjectField(f.Name)
		writeValue(s, f.Value)
	}
	s.WriteObjectEnd()
}

func writeValue(s *jsoniter.Stream, v Value) {
	switch v.kind {
	case KindMissing, KindNull:
		s.WriteNil()
	case KindBool:
		b, _ := v.Bool()
		s.WriteBool(b)
	case KindInt64:
		i, _ := v.Int64()
		s.WriteInt64(i)
	case KindFloat64:
		f, _ := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			s.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			return
		}
		s.WriteFloat64(f)
	case KindString:
		s.WriteString(v.str)
	case KindTime:
		t, _ := v.Time()
		s.WriteObjectStart()
		s.WriteObjectField("$date")
		s.WriteString(t.Format(time.RFC3339Nano))
		s.WriteObjectEnd()
	case KindBinary:
		s.WriteObjectStart()
		s.WriteObjectField("$binary")
		s.WriteString(base64.StdEncoding.EncodeToString(v.bin))
		s.WriteObjectEnd()
	case KindDocument:
		writeDocument(s, v.doc)
	case KindArray:
		s.WriteArrayStart()
		for i := range v.arr {
			if i > 0 {
				s.WriteMore()
			}
			writeValue(s, v.arr[i])
		}
		s.WriteArrayEnd()
	}
}
