package unwind

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the unwinders of a process did.
type Metrics struct {
	chunksDecoded   *prometheus.CounterVec
	chunksExcluded  prometheus.Counter
	samplesEmitted  prometheus.Counter
	samplesSkipped  prometheus.Counter
	passedThrough   prometheus.Counter
	missingExcluded prometheus.Counter
	decodeFailures  prometheus.Counter
}

// NewMetrics registers the unwinder counters with reg. A nil reg creates
// unregistered counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ftdcunwind",
			Subsystem: "unwinder",
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		chunksDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftdcunwind",
			Subsystem: "unwinder",
			Name:      "chunks_decoded_total",
			Help:      "Total number of chunks decoded, by chunk type.",
		}, []string{"type"}),
		chunksExcluded:  counter("chunks_excluded_total", "Total number of metadata chunks suppressed by excludeMetadata."),
		samplesEmitted:  counter("samples_emitted_total", "Total number of samples emitted."),
		samplesSkipped:  counter("samples_out_of_window_total", "Total number of samples dropped for starting before the time window."),
		passedThrough:   counter("records_passed_through_total", "Total number of records without chunk data emitted unchanged."),
		missingExcluded: counter("records_excluded_total", "Total number of records without chunk data suppressed by excludeMissing."),
		decodeFailures:  counter("decode_failures_total", "Total number of chunks that failed to decode and were skipped."),
	}
}
