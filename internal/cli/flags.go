// Package cli binds the run configuration to command line flags.
package cli

import (
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"

	buddha "github.com/marben/buddhabrot"
)

// Bind registers a flag for every Config field, using the current values of cfg as defaults.
func Bind(fs *flag.FlagSet, cfg *buddha.Config) {
	fs.Var(&cfg.SampleRegion, "sample", "region points are drawn from: xmin,xmax,ymin,ymax or a preset name")
	fs.Var(&cfg.HistogramRegion, "view", "region rasterized into the image: xmin,xmax,ymin,ymax or a preset name")
	fs.BoolVar(&cfg.Clip, "clip", cfg.Clip, "drop orbit values outside the view instead of failing")
	names := slices.Sorted(maps.Keys(buddha.Presets))
	fs.Func("preset", "named view, one of "+strings.Join(names, ", ")+"; views smaller than the square also turn on -clip", func(s string) error {
		r, ok := buddha.Presets[s]
		if !ok {
			return fmt.Errorf("unknown preset %q, want one of %s", s, strings.Join(names, ", "))
		}
		cfg.HistogramRegion = r
		if !covers(r, buddha.Square) {
			cfg.Clip = true
		}
		return nil
	})

	fs.Uint64Var(&cfg.IterationLimit, "limit", cfg.IterationLimit, "iteration budget per point")
	fs.Float64Var(&cfg.Bailout, "bailout", cfg.Bailout, "squared magnitude at which an orbit has escaped")
	fs.Uint64Var(&cfg.MinIterations, "min-iterations", cfg.MinIterations, "keep only orbits escaping after more iterations than this")
	fs.Uint64Var(&cfg.RecordThreshold, "record-threshold", cfg.RecordThreshold, "log orbits escaping after more iterations than this, 0 disables")

	fs.IntVar(&cfg.ResolutionX, "width", cfg.ResolutionX, "image width in pixels")
	fs.IntVar(&cfg.ResolutionY, "height", cfg.ResolutionY, "image height in pixels")

	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of sampling goroutines")
	fs.Uint64Var(&cfg.BaseSeed, "seed", cfg.BaseSeed, "seed of worker 0, worker i uses seed+i")

	fs.Var(&cfg.BatchMode, "batch-mode", "batch completion criterion: sum or count")
	fs.Uint64Var(&cfg.BatchSize, "batch-size", cfg.BatchSize, "iteration sum or point count per batch")
	fs.IntVar(&cfg.QueueDepth, "queue", cfg.QueueDepth, "batches buffered between workers and the aggregator")

	fs.Var(&cfg.TargetKind, "target-kind", "unit of -target and -save-every: iterations, points or batches")
	fs.Uint64Var(&cfg.Target, "target", cfg.Target, "stop once this much progress is aggregated, 0 runs until interrupted")
	fs.Uint64Var(&cfg.SaveInterval, "save-every", cfg.SaveInterval, "progress between image snapshots")
}

// covers reports whether outer contains all of inner.
func covers(outer, inner buddha.Region) bool {
	return outer.Xmin <= inner.Xmin && outer.Xmax >= inner.Xmax &&
		outer.Ymin <= inner.Ymin && outer.Ymax >= inner.Ymax
}
