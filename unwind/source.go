package unwind

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/arloliu/ftdcunwind/ftdcfile"
	"github.com/arloliu/ftdcunwind/record"
)

// RecordSource produces output records one at a time. Next returns io.EOF
// once the input is exhausted.
type RecordSource interface {
	Next(ctx context.Context) (record.Document, error)
}

// Upstream supplies parent records to a StreamSource. Next returns io.EOF
// at the end of input; any other error is passed on unchanged.
type Upstream interface {
	Next(ctx context.Context) (record.Document, error)
}

// UpstreamFunc adapts a function to Upstream.
type UpstreamFunc func(ctx context.Context) (record.Document, error)

// Next implements Upstream.
func (f UpstreamFunc) Next(ctx context.Context) (record.Document, error) {
	return f(ctx)
}

// SliceUpstream replays a fixed list of records.
type SliceUpstream struct {
	docs []record.Document
	next int
}

// NewSliceUpstream returns an Upstream over docs.
func NewSliceUpstream(docs ...record.Document) *SliceUpstream {
	return &SliceUpstream{docs: docs}
}

// Next implements Upstream.
func (s *SliceUpstream) Next(ctx context.Context) (record.Document, error) {
	if err := ctx.Err(); err != nil {
		return record.Document{}, err
	}
	if s.next >= len(s.docs) {
		return record.Document{}, io.EOF
	}
	doc := s.docs[s.next]
	s.next++

	return doc, nil
}

// StreamSource unwinds the records of an Upstream.
type StreamSource struct {
	upstream Upstream
	unwinder *Unwinder
}

// NewStreamSource returns the path-scoped source.
func NewStreamSource(upstream Upstream, spec StreamSpec, opts ...Option) (*StreamSource, error) {
	u, err := NewStreamUnwinder(spec, opts...)
	if err != nil {
		return nil, err
	}

	return &StreamSource{upstream: upstream, unwinder: u}, nil
}

// Next implements RecordSource. Parents that yield no output are consumed
// until one does; the upstream's terminal error, io.EOF included, is
// returned as it is.
func (s *StreamSource) Next(ctx context.Context) (record.Document, error) {
	if err := ctx.Err(); err != nil {
		return record.Document{}, err
	}

	for {
		out, ok, err := s.unwinder.Next()
		if err != nil {
			return record.Document{}, err
		}
		if ok {
			return out, nil
		}

		parent, err := s.upstream.Next(ctx)
		if err != nil {
			return record.Document{}, err
		}
		s.unwinder.Reset(parent)
	}
}

// WindowSource unwinds a preloaded list of chunk documents over a time
// window.
type WindowSource struct {
	chunks   []record.Document
	next     int
	unwinder *Unwinder
}

// NewWindowSource returns the file-scoped source over chunks. The list is
// read-only afterwards.
func NewWindowSource(chunks []record.Document, spec WindowSpec, opts ...Option) (*WindowSource, error) {
	u, err := NewWindowUnwinder(spec, opts...)
	if err != nil {
		return nil, err
	}

	return &WindowSource{chunks: chunks, unwinder: u}, nil
}

// OpenWindow preloads the chunks covering spec.Window from sel and returns a
// WindowSource over them. The window is validated before any file is read.
func OpenWindow(ctx context.Context, sel *ftdcfile.Selector, spec WindowSpec, opts ...Option) (*WindowSource, error) {
	u, err := NewWindowUnwinder(spec, opts...)
	if err != nil {
		return nil, err
	}

	chunks, err := sel.Select(ctx, spec.Window.Start, spec.Window.End)
	if err != nil {
		return nil, err
	}

	return &WindowSource{chunks: chunks, unwinder: u}, nil
}

// Len returns the number of preloaded chunks.
func (s *WindowSource) Len() int {
	return len(s.chunks)
}

// Next implements RecordSource.
func (s *WindowSource) Next(ctx context.Context) (record.Document, error) {
	if err := ctx.Err(); err != nil {
		return record.Document{}, err
	}

	for {
		out, ok, err := s.unwinder.Next()
		if err != nil {
			return record.Document{}, err
		}
		if ok {
			return out, nil
		}

		if s.next >= len(s.chunks) {
			return record.Document{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return record.Document{}, err
		}
		s.unwinder.Reset(s.chunks[s.next])
		s.next++
	}
}

// All iterates src until io.EOF. Any other error is yielded once and ends
// the iteration.
func All(ctx context.Context, src RecordSource) iter.Seq2[record.Document, error] {
	return func(yield func(record.Document, error) bool) {
		for {
			doc, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(record.Document{}, err)
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// Collect drains src into a slice.
func Collect(ctx context.Context, src RecordSource) ([]record.Document, error) {
	var out []record.Document
	for doc, err := range All(ctx, src) {
		if err != nil {
			return out, err
		}
		out = append(out, doc)
	}

	return out, nil
}
