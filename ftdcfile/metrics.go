package ftdcfile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SelectorMetrics counts the work done by a Selector.
type SelectorMetrics struct {
	filesSelected   prometheus.Counter
	filesSkipped    prometheus.Counter
	chunksPreloaded *prometheus.CounterVec
}

// NewSelectorMetrics registers the selector counters with reg. A nil reg
// creates unregistered counters.
func NewSelectorMetrics(reg prometheus.Registerer) *SelectorMetrics {
	return &SelectorMetrics{
		filesSelected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "ftdcunwind",
			Subsystem: "selector",
			Name:      "files_selected_total",
			Help:      "Total number of chunk files selected for a time window.",
		}),
		filesSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "ftdcunwind",
			Subsystem: "selector",
			Name:      "foreign_files_skipped_total",
			Help:      "Total number of directory entries ignored because they are not chunk files.",
		}),
		chunksPreloaded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftdcunwind",
			Subsystem: "selector",
			Name:      "chunks_preloaded_total",
			Help:      "Total number of chunks retained for unwinding, by chunk type.",
		}, []string{"type"}),
	}
}
