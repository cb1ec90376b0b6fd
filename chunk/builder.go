package chunk

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/record"
)

// EncodeSamples packs samples into as many metrics chunks as needed. A new
// chunk starts when the current one is full or a sample changes schema.
// Each chunk is identified by the TimestampField of its first sample.
func EncodeSamples(samples []record.Document, opts ...MetricsEncoderOption) ([]Chunk, error) {
	var (
		chunks []Chunk
		enc    *MetricsEncoder
		id     time.Time
	)

	flush := func() error {
		if enc == nil {
			return nil
		}
		data, err := enc.Finish()
		enc = nil
		if err != nil {
			return err
		}
		chunks = append(chunks, NewMetrics(id, data))

		return nil
	}

	begin := func(sample record.Document) error {
		ts, ok := sample.Get(TimestampField).Time()
		if !ok {
			return fmt.Errorf("%q is not a date", TimestampField)
		}

		var err error
		enc, err = NewMetricsEncoder(opts...)
		id = ts

		return err
	}

	for i, sample := range samples {
		if enc != nil && enc.Full() {
			if err := flush(); err != nil {
				return nil, err
			}
		}

		if enc == nil {
			if err := begin(sample); err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
		}

		err := enc.Add(sample)
		if errors.Is(err, errs.ErrSchemaMismatch) {
			if err = flush(); err != nil {
				return nil, err
			}
			if err = begin(sample); err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
			err = enc.Add(sample)
		}
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return chunks, nil
}
