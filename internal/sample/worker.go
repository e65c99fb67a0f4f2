package sample

import (
	"context"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/escape"
)

// probes between two checks of the run context while a batch fills up
const cancelCheckEvery = 4096

// Worker samples points and collects the ones whose orbits escape late enough.
// A Worker owns all of its state; run one per goroutine.
type Worker struct {
	ID            int
	source        *Source
	eval          escape.Evaluator
	stats         escape.Stats
	minIterations uint64
	mode          buddha.BatchMode
	size          uint64
}

// NewWorker creates worker id seeded with cfg.BaseSeed + id.
func NewWorker(cfg buddha.Config, id int) *Worker {
	w := &Worker{
		ID:            id,
		source:        NewSource(cfg.SampleRegion, cfg.BaseSeed+uint64(id)),
		minIterations: cfg.MinIterations,
		mode:          cfg.BatchMode,
		size:          cfg.BatchSize,
	}
	w.eval = escape.Evaluator{Limit: cfg.IterationLimit, Bailout: cfg.Bailout, Stats: &w.stats}
	return w
}

// Stats returns what the worker's evaluator has done so far.
func (w *Worker) Stats() escape.Stats {
	return w.stats
}

// Probe draws one point and evaluates it.
// ok is true when the orbit escaped after more than the minimum number of iterations.
func (w *Worker) Probe() (p buddha.QualifyingPoint, ok bool) {
	c := w.source.Sample()
	it, escaped := w.eval.Evaluate(c)
	if !escaped || it <= w.minIterations {
		return buddha.QualifyingPoint{}, false
	}
	return buddha.QualifyingPoint{Point: c, Iterations: it}, true
}

// NextBatch probes until the batch policy is satisfied.
func (w *Worker) NextBatch() buddha.Batch {
	b, _ := w.fill(context.Background())
	return b
}

func (w *Worker) fill(ctx context.Context) (buddha.Batch, error) {
	b := buddha.Batch{Worker: w.ID}
	for !w.complete(b) {
		b.Probed++
		if b.Probed%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return b, err
			}
		}
		p, ok := w.Probe()
		if !ok {
			continue
		}
		b.Points = append(b.Points, p)
		b.IterationSum += p.Iterations
	}
	return b, nil
}

func (w *Worker) complete(b buddha.Batch) bool {
	if w.mode == buddha.BatchByCount {
		return uint64(len(b.Points)) >= w.size
	}
	return b.IterationSum >= w.size
}

// Run sends batches to out until ctx is done.
// A cancelled run context is how the aggregator tells workers it has stopped listening.
func (w *Worker) Run(ctx context.Context, out chan<- buddha.Batch) {
	for {
		b, err := w.fill(ctx)
		if err != nil {
			return
		}
		select {
		case out <- b:
		case <-ctx.Done():
			return
		}
	}
}
