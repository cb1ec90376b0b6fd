package unwind

import (
	"time"

	"github.com/go-kit/log/level"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/record"
)

// Unwinder expands the chunk of one parent record into output records.
//
// Call Reset with a parent, then Next until it reports the end of the unit.
// The chunk is classified and decoded lazily on the first Next after Reset,
// at most once per parent.
//
// Note: The Unwinder is NOT thread-safe.
type Unwinder struct {
	*Config

	path            record.Path
	excludeMetadata bool
	excludeMissing  bool
	window          *TimeWindow

	hasNext   bool
	loaded    bool
	parent    record.Document
	positions record.Positions
	samples   []record.Document
	cursor    int
}

// NewStreamUnwinder returns the path-scoped Unwinder.
func NewStreamUnwinder(spec StreamSpec, opts ...Option) (*Unwinder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Unwinder{
		Config:          cfg,
		path:            spec.Path,
		excludeMetadata: spec.ExcludeMetadata,
		excludeMissing:  spec.ExcludeMissing,
	}, nil
}

// NewWindowUnwinder returns the file-scoped Unwinder. The window is
// checked against the configured maximum.
func NewWindowUnwinder(spec WindowSpec, opts ...Option) (*Unwinder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := spec.Window.Validate(cfg.maxWindow); err != nil {
		return nil, err
	}

	window := spec.Window

	return &Unwinder{
		Config:          cfg,
		excludeMetadata: spec.ExcludeMetadata,
		window:          &window,
	}, nil
}

// Reset discards the state of the previous parent and starts on parent.
func (u *Unwinder) Reset(parent record.Document) {
	u.parent = parent
	u.positions = nil
	u.samples = nil
	u.cursor = 0
	u.loaded = false
	u.hasNext = true
}

// Next returns the next output record of the current parent. ok=false with
// a nil error marks the end of the unit; it is returned on every call until
// the next Reset. An error is fatal for the whole operation.
func (u *Unwinder) Next() (record.Document, bool, error) {
	if !u.hasNext {
		return record.Document{}, false, nil
	}

	if !u.loaded {
		u.loaded = true

		pass, err := u.load()
		if err != nil {
			u.finish()
			return record.Document{}, false, err
		}
		if pass {
			out := u.parent
			u.finish()
			u.metrics.passedThrough.Inc()

			return out, true, nil
		}
		if !u.hasNext {
			u.finish()
			return record.Document{}, false, nil
		}
	}

	if u.window != nil {
		if ok, err := u.seekWindow(); !ok {
			u.finish()
			return record.Document{}, false, err
		}
	}

	if u.cursor >= len(u.samples) {
		u.finish()
		return record.Document{}, false, nil
	}

	sample := u.samples[u.cursor]
	u.cursor++

	out := sample
	if !u.path.IsZero() {
		// SetAt copies the containers along the path, so every output is
		// a snapshot independent of the parent and of later outputs.
		out = u.parent.SetAt(u.positions, record.Doc(sample))
	}

	if u.cursor >= len(u.samples) {
		u.finish()
	}
	u.metrics.samplesEmitted.Inc()

	return out, true, nil
}

// load extracts, classifies and decodes the chunk of the current parent.
// pass reports that the parent itself must be emitted once. When the parent
// yields nothing, load clears hasNext.
func (u *Unwinder) load() (pass bool, err error) {
	raw := u.parent
	if !u.path.IsZero() {
		v, pos, ok := record.Lookup(u.parent, u.path)
		doc, isDoc := v.Document()
		if !ok || !isDoc {
			return u.missing("no chunk document at path", "kind", v.Kind())
		}
		raw, u.positions = doc, pos
	}

	c, err := u.decoder.Classify(raw)
	if err != nil {
		if u.window != nil {
			return false, errs.Wrap(errs.CodeDecode, err, "classify chunk")
		}

		return u.missing("not a chunk", "err", err)
	}

	if c.IsMetadata() && u.excludeMetadata {
		u.metrics.chunksExcluded.Inc()
		u.hasNext = false

		return false, nil
	}

	samples, err := u.decoder.Decode(c)
	if err != nil {
		if u.window != nil {
			return false, errs.Wrap(errs.CodeDecode, err, "decode chunk "+c.ID.Format(time.RFC3339Nano))
		}

		u.metrics.decodeFailures.Inc()
		level.Debug(u.logger).Log("msg", "skipping undecodable chunk", "id", c.ID.Format(time.RFC3339Nano), "err", err)
		u.hasNext = false

		return false, nil
	}

	u.metrics.chunksDecoded.WithLabelValues(c.Type.String()).Inc()
	u.samples = samples
	if len(samples) == 0 {
		u.hasNext = false
	}

	return false, nil
}

// missing applies the excludeMissing policy to a parent without a usable
// chunk.
func (u *Unwinder) missing(reason string, keyvals ...any) (bool, error) {
	u.hasNext = false

	if u.excludeMissing {
		u.metrics.missingExcluded.Inc()
		level.Debug(u.logger).Log(append([]any{"msg", "excluding record", "reason", reason}, keyvals...)...)

		return false, nil
	}

	return true, nil
}

// seekWindow moves the cursor to the first sample at or after the window
// start. It returns false when the unit is over: no samples left, a sample
// at or after the window end, or a sample without a timestamp (with an
// error).
func (u *Unwinder) seekWindow() (bool, error) {
	for ; u.cursor < len(u.samples); u.cursor++ {
		ts, ok := u.samples[u.cursor].Get(chunk.TimestampField).Time()
		if !ok {
			return false, errs.Newf(errs.CodeMissingTimestamp,
				"sample %d has no date in %q, got %s", u.cursor, chunk.TimestampField,
				u.samples[u.cursor].Get(chunk.TimestampField).Kind())
		}

		if ts.Before(u.window.Start) {
			u.metrics.samplesSkipped.Inc()
			continue
		}
		if !ts.Before(u.window.End) {
			return false, nil
		}

		return true, nil
	}

	return false, nil
}

// finish ends the unit and drops the decoded samples.
func (u *Unwinder) finish() {
	u.hasNext = false
	u.samples = nil
	u.parent = record.Document{}
	u.positions = nil
}
