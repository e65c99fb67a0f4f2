// Package pipeline runs sampling workers and aggregates their batches into a density histogram.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/histogram"
	"github.com/marben/buddhabrot/internal/metrics"
	"github.com/marben/buddhabrot/internal/sample"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sinks receive the results of a run. Either may be nil.
type Sinks struct {
	Images  buddha.ImageSink
	Records buddha.RecordSink
}

// Progress of a run, summed over aggregated batches.
type Progress struct {
	Batches    uint64
	Points     uint64
	Probed     uint64
	Iterations uint64
	Clipped    uint64
}

// In returns the progress measured in the unit of k.
func (p Progress) In(k buddha.TargetKind) uint64 {
	switch k {
	case buddha.TargetPoints:
		return p.Points
	case buddha.TargetBatches:
		return p.Batches
	}
	return p.Iterations
}

// Option configures Run.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider makes Run record its spans with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// Run samples until cfg.Target is reached or ctx is cancelled, then writes a final snapshot
// unless nothing was aggregated since the last successful one.
// Cancellation ends the run normally; errors come from the config, the histogram or the sinks.
func Run(ctx context.Context, cfg buddha.Config, sinks Sinks, opts ...Option) (progress Progress, err error) {
	if err := cfg.Validate(); err != nil {
		return Progress{}, err
	}
	o := options{tracerProvider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	tracer := o.tracerProvider.Tracer("github.com/marben/buddhabrot/internal/pipeline")

	ctx, span := tracer.Start(ctx, "buddhabrot.pipeline.run", trace.WithAttributes(
		attribute.Int("workers", cfg.Workers),
		attribute.String("target_kind", cfg.TargetKind.String()),
		attribute.Int64("target", int64(cfg.Target)),
	))
	defer func() {
		span.SetAttributes(attribute.Int64("batches", int64(progress.Batches)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var histOpts []histogram.Option
	if cfg.Clip {
		histOpts = append(histOpts, histogram.WithClip())
	}
	hist, err := histogram.New(cfg.ResolutionX, cfg.ResolutionY, cfg.HistogramRegion, histOpts...)
	if err != nil {
		return Progress{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	batches := startWorkers(runCtx, cfg)

	a := &aggregator{cfg: cfg, hist: hist, sinks: sinks, tracer: tracer, nextSave: cfg.SaveInterval}
	err = a.consume(ctx, batches)

	// stop the workers and let the closer goroutine finish
	cancel()
	for range batches {
	}

	if err != nil {
		return a.progress, err
	}
	if a.saved && a.savedBatches == a.progress.Batches {
		log.Printf("final snapshot skipped, nothing aggregated since batch %d", a.savedBatches)
	} else if err := a.snapshot(context.WithoutCancel(ctx), "final"); err != nil {
		return a.progress, fmt.Errorf("final snapshot: %w", err)
	}
	log.Printf("run finished: %d batches, %d points from %d probes, %d iterations",
		a.progress.Batches, a.progress.Points, a.progress.Probed, a.progress.Iterations)
	return a.progress, nil
}

// startWorkers launches cfg.Workers workers and returns the channel they share.
// The channel is closed once every worker has returned.
func startWorkers(ctx context.Context, cfg buddha.Config) <-chan buddha.Batch {
	out := make(chan buddha.Batch, cfg.QueueDepth)
	var wg sync.WaitGroup
	for i := range cfg.Workers {
		w := sample.NewWorker(cfg, i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.Workers.Inc()
			defer metrics.Workers.Dec()
			w.Run(ctx, out)
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

type aggregator struct {
	cfg      buddha.Config
	hist     *histogram.Histogram
	sinks    Sinks
	tracer   trace.Tracer
	progress Progress
	nextSave uint64

	// batch count at the last successful snapshot
	saved        bool
	savedBatches uint64
}

// consume aggregates batches until the channel closes or the target is reached.
func (a *aggregator) consume(ctx context.Context, batches <-chan buddha.Batch) error {
	for b := range batches {
		if err := a.add(b); err != nil {
			return err
		}

		done := a.progress.In(a.cfg.TargetKind)
		if done >= a.nextSave {
			// a failed periodic save is retried at the next interval
			if err := a.snapshot(ctx, "periodic"); err != nil {
				log.Printf("snapshot failed: %v", err)
			}
			a.nextSave = (done/a.cfg.SaveInterval + 1) * a.cfg.SaveInterval
		}
		if a.cfg.Target > 0 && done >= a.cfg.Target {
			return nil
		}
	}
	return nil
}

func (a *aggregator) add(b buddha.Batch) error {
	clipped := a.hist.Clipped()
	// a fresh slice per batch, sinks may keep what they are given
	var records []buddha.QualifyingPoint
	for _, p := range b.Points {
		if err := a.hist.Replay(p.Point, p.Iterations); err != nil {
			return fmt.Errorf("batch from worker %d: %w", b.Worker, err)
		}
		if a.cfg.RecordThreshold > 0 && p.Iterations > a.cfg.RecordThreshold {
			records = append(records, p)
		}
	}
	if len(records) > 0 && a.sinks.Records != nil {
		if err := a.sinks.Records.WriteRecords(records); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
		metrics.RecordsWritten.Add(float64(len(records)))
	}

	a.progress.Batches++
	a.progress.Points += uint64(len(b.Points))
	a.progress.Probed += b.Probed
	a.progress.Iterations += b.IterationSum
	a.progress.Clipped = a.hist.Clipped()

	metrics.Batches.WithLabelValues(strconv.Itoa(b.Worker)).Inc()
	metrics.PointsProbed.Add(float64(b.Probed))
	metrics.QualifyingPoints.Add(float64(len(b.Points)))
	metrics.OrbitIterations.Add(float64(b.IterationSum))
	metrics.ClippedValues.Add(float64(a.hist.Clipped() - clipped))
	return nil
}

func (a *aggregator) snapshot(ctx context.Context, kind string) (err error) {
	if a.sinks.Images == nil {
		return nil
	}
	_, span := a.tracer.Start(ctx, "buddhabrot.pipeline.snapshot", trace.WithAttributes(
		attribute.String("kind", kind),
		attribute.Int64("batches", int64(a.progress.Batches)),
		attribute.Int64("points", int64(a.progress.Points)),
		attribute.Int64("iterations", int64(a.progress.Iterations)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.Snapshots.WithLabelValues(result).Inc()
	}()

	peak := a.hist.Max()
	metrics.HistogramPeak.Set(float64(peak))
	if err := a.sinks.Images.WriteImage(a.hist.Grid()); err != nil {
		return err
	}
	a.saved, a.savedBatches = true, a.progress.Batches
	log.Printf("%s snapshot: %d batches, %d points, %d iterations, peak %d",
		kind, a.progress.Batches, a.progress.Points, a.progress.Iterations, peak)
	return nil
}
