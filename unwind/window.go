package unwind

import (
	"time"

	"github.com/arloliu/ftdcunwind/errs"
)

// DefaultMaxWindow bounds the duration of a TimeWindow unless configured
// otherwise.
const DefaultMaxWindow = 60 * time.Minute

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow validates 0 < end-start <= maxWindow. A non-positive
// maxWindow means DefaultMaxWindow. Violations fail with errs.CodeBadWindow.
func NewTimeWindow(start, end time.Time, maxWindow time.Duration) (TimeWindow, error) {
	w := TimeWindow{Start: start, End: end}
	if err := w.Validate(maxWindow); err != nil {
		return TimeWindow{}, err
	}

	return w, nil
}

// Validate checks the window bounds against maxWindow.
func (w TimeWindow) Validate(maxWindow time.Duration) error {
	if maxWindow <= 0 {
		maxWindow = DefaultMaxWindow
	}

	d := w.End.Sub(w.Start)
	if d <= 0 {
		return errs.Newf(errs.CodeBadWindow, "window end %s must be after start %s",
			w.End.Format(time.RFC3339Nano), w.Start.Format(time.RFC3339Nano))
	}
	if d > maxWindow {
		return errs.Newf(errs.CodeBadWindow, "window of %s exceeds the maximum of %s", d, maxWindow)
	}

	return nil
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t lies in [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
