package sample

import (
	"context"
	"slices"
	"testing"
	"time"

	buddha "github.com/marben/buddhabrot"
)

func scenarioConfig() buddha.Config {
	cfg := buddha.DefaultConfig()
	cfg.SampleRegion = buddha.Region{Xmin: -2, Xmax: 1, Ymin: -1.4, Ymax: 1.4}
	cfg.IterationLimit = 12000
	cfg.Bailout = 4.0
	cfg.MinIterations = 5
	cfg.BaseSeed = 1988
	return cfg
}

func TestSourceDeterministic(t *testing.T) {
	a := NewSource(buddha.FullSet, 1988)
	b := NewSource(buddha.FullSet, 1988)
	c := NewSource(buddha.FullSet, 1989)
	differ := false
	for i := 0; i < 1000; i++ {
		pa, pb, pc := a.Sample(), b.Sample(), c.Sample()
		if pa != pb {
			t.Fatalf("sample %d: got %v and %v from equal seeds", i, pa, pb)
		}
		if pa != pc {
			differ = true
		}
	}
	if !differ {
		t.Error("seeds 1988 and 1989 produced the same stream")
	}
}

func TestSourceStaysInRegion(t *testing.T) {
	regions := []buddha.Region{
		buddha.FullSet,
		buddha.SeahorseValley,
		{Xmin: 0, Xmax: 1e-12, Ymin: -1e-12, Ymax: 0},
	}
	for _, r := range regions {
		s := NewSource(r, 7)
		for i := 0; i < 10000; i++ {
			if p := s.Sample(); !r.Contains(p) {
				t.Fatalf("region %s: sample %v outside", r, p)
			}
		}
	}
}

func TestWorkerDeterministic(t *testing.T) {
	const draws = 2000
	run := func() []buddha.QualifyingPoint {
		w := NewWorker(scenarioConfig(), 0)
		var got []buddha.QualifyingPoint
		for i := 0; i < draws; i++ {
			if p, ok := w.Probe(); ok {
				got = append(got, p)
			}
		}
		return got
	}

	first, second := run(), run()
	if len(first) == 0 {
		t.Fatal("no qualifying points in 2000 draws")
	}
	if !slices.Equal(first, second) {
		t.Fatalf("runs differ: %d and %d points", len(first), len(second))
	}
	for _, p := range first {
		if p.Iterations <= 5 {
			t.Errorf("point %v kept with %d iterations", p.Point, p.Iterations)
		}
	}
}

func TestWorkersAreIndependentlySeeded(t *testing.T) {
	cfg := scenarioConfig()
	w0, w1 := NewWorker(cfg, 0), NewWorker(cfg, 1)
	if w0.source.Sample() == w1.source.Sample() {
		t.Error("workers 0 and 1 drew the same first point")
	}
}

func TestNextBatchPolicies(t *testing.T) {
	tests := []struct {
		name string
		mode buddha.BatchMode
		size uint64
	}{
		{name: "count", mode: buddha.BatchByCount, size: 25},
		{name: "sum", mode: buddha.BatchBySum, size: 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scenarioConfig()
			cfg.BatchMode = tt.mode
			cfg.BatchSize = tt.size
			w := NewWorker(cfg, 3)
			b := w.NextBatch()

			if b.Worker != 3 {
				t.Errorf("worker: got %d, want 3", b.Worker)
			}
			var sum uint64
			for _, p := range b.Points {
				sum += p.Iterations
			}
			if sum != b.IterationSum {
				t.Errorf("iteration sum: got %d, points add up to %d", b.IterationSum, sum)
			}
			if b.Probed < uint64(len(b.Points)) {
				t.Errorf("probed %d < %d points", b.Probed, len(b.Points))
			}
			if b.Probed != w.Stats().Evaluations {
				t.Errorf("probed %d, evaluator saw %d", b.Probed, w.Stats().Evaluations)
			}

			switch tt.mode {
			case buddha.BatchByCount:
				if uint64(len(b.Points)) != tt.size {
					t.Errorf("points: got %d, want %d", len(b.Points), tt.size)
				}
			case buddha.BatchBySum:
				if b.IterationSum < tt.size {
					t.Errorf("sum %d below target %d", b.IterationSum, tt.size)
				}
				last := b.Points[len(b.Points)-1].Iterations
				if b.IterationSum-last >= tt.size {
					t.Errorf("batch kept filling after reaching %d", tt.size)
				}
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := scenarioConfig()
	cfg.BatchMode = buddha.BatchByCount
	cfg.BatchSize = 1
	w := NewWorker(cfg, 0)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan buddha.Batch)
	done := make(chan struct{})
	go func() {
		w.Run(ctx, out)
		close(done)
	}()

	b := <-out
	if len(b.Points) != 1 {
		t.Fatalf("points: got %d, want 1", len(b.Points))
	}
	// nobody receives any more, the worker must notice the cancellation
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunStopsWhileFilling(t *testing.T) {
	cfg := scenarioConfig()
	// entirely inside the main cardioid: nothing ever qualifies
	cfg.SampleRegion = buddha.Region{Xmin: -0.3, Xmax: -0.1, Ymin: -0.1, Ymax: 0.1}
	w := NewWorker(cfg, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, make(chan buddha.Batch))
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	if s := w.Stats(); s.Escapes != 0 {
		t.Errorf("escapes: got %d inside the cardioid", s.Escapes)
	}
}
