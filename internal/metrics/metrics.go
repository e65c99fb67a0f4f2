// Package metrics holds the Prometheus collectors of the sampling pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PointsProbed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddhabrot_points_probed_total",
		Help: "Candidate points drawn and evaluated by workers",
	})

	QualifyingPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddhabrot_qualifying_points_total",
		Help: "Points whose orbits escaped late enough to be replayed",
	})

	Batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddhabrot_batches_total",
		Help: "Batches aggregated, by worker",
	}, []string{"worker"})

	OrbitIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddhabrot_orbit_iterations_total",
		Help: "Orbit values replayed into the histogram",
	})

	ClippedValues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddhabrot_clipped_values_total",
		Help: "Orbit values dropped for falling outside the histogram region",
	})

	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddhabrot_records_written_total",
		Help: "Long lived orbits sent to the record sink",
	})

	Snapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddhabrot_snapshots_total",
		Help: "Histogram snapshots written to the image sink, by result",
	}, []string{"result"})

	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buddhabrot_snapshot_duration_seconds",
		Help:    "Time spent normalizing and writing a snapshot",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	HistogramPeak = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buddhabrot_histogram_peak",
		Help: "Largest cell count at the last snapshot",
	})

	Workers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buddhabrot_workers",
		Help: "Sampling workers currently running",
	})

	Viewers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buddhabrot_viewers",
		Help: "Viewers connected to the frame server",
	})
)
