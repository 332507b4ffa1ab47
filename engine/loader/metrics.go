package loader

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	lodLabel     = "lod"
	outcomeLabel = "outcome"
	errTypeLabel = "error_type"

	outcomeLoaded    = "loaded"
	outcomeFailed    = "failed"
	outcomeCulled    = "culled"
	outcomeCancelled = "cancelled"
)

var (
	sectorLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sector_loads",
		Help: "The number of sector load requests by level of detail and outcome.",
	}, []string{
		lodLabel,
		outcomeLabel,
	})

	sectorLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sector_load_errors",
		Help: "The errors that occurred while transforming or uploading a sector.",
	}, []string{
		lodLabel,
		errTypeLabel,
	})

	sectorTransformLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sector_transform_latency",
		Help:    "The time to transform and upload one sector.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{
		lodLabel,
	})

	instancesKept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sector_instances_kept",
		Help: "The number of instanced mesh placements that survived clipping.",
	})

	instancesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sector_instances_discarded",
		Help: "The number of instanced mesh placements discarded by clipping.",
	})
)

func instrumentSectorLoad(lod, outcome string) {
	sectorLoads.With(prometheus.Labels{
		lodLabel:     lod,
		outcomeLabel: outcome,
	}).Inc()
}

func instrumentSectorLoadError(lod string, err error) {
	sectorLoadErrors.
		With(prometheus.Labels{
			lodLabel:     lod,
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}

func instrumentTransformLatency(lod string, start time.Time) {
	sectorTransformLatency.With(prometheus.Labels{
		lodLabel: lod,
	}).Observe(time.Since(start).Seconds())
}

func instrumentInstances(before, after int) {
	instancesKept.Add(float64(after))
	if discarded := before - after; discarded > 0 {
		instancesDiscarded.Add(float64(discarded))
	}
}
