package buddha

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Region within the complex plane.
// X is the real axis, Y the imaginary one.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Width of the region along the real axis
func (r Region) Width() float64 { return r.Xmax - r.Xmin }

// Height of the region along the imaginary axis
func (r Region) Height() float64 { return r.Ymax - r.Ymin }

// Contains reports whether c lies in [Xmin,Xmax)×[Ymin,Ymax).
func (r Region) Contains(c complex128) bool {
	x, y := real(c), imag(c)
	return x >= r.Xmin && x < r.Xmax && y >= r.Ymin && y < r.Ymax
}

func (r Region) validate() error {
	for _, v := range []float64{r.Xmin, r.Xmax, r.Ymin, r.Ymax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("region %s: bounds must be finite", r)
		}
	}
	if r.Xmin >= r.Xmax {
		return fmt.Errorf("region %s: real range is empty or inverted", r)
	}
	if r.Ymin >= r.Ymax {
		return fmt.Errorf("region %s: imaginary range is empty or inverted", r)
	}
	return nil
}

// String formats the region as "xmin,xmax,ymin,ymax", the form accepted by Set.
func (r Region) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return f(r.Xmin) + "," + f(r.Xmax) + "," + f(r.Ymin) + "," + f(r.Ymax)
}

// Set parses "xmin,xmax,ymin,ymax" or the name of a preset.
// It implements flag.Value.
func (r *Region) Set(s string) error {
	if p, ok := Presets[s]; ok {
		*r = p
		return nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return fmt.Errorf("region %q: want xmin,xmax,ymin,ymax or a preset name", s)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("region %q: %w", s, err)
		}
		vals[i] = v
	}
	*r = Region{Xmin: vals[0], Xmax: vals[1], Ymin: vals[2], Ymax: vals[3]}
	return nil
}

// BatchMode selects when a worker considers its batch complete.
type BatchMode int

const (
	// BatchBySum completes a batch once the summed iteration counts of its points reach the batch size.
	// Batches then represent comparable amounts of replay work.
	BatchBySum BatchMode = iota
	// BatchByCount completes a batch once it holds batch size points.
	BatchByCount
)

func (m BatchMode) String() string {
	switch m {
	case BatchBySum:
		return "sum"
	case BatchByCount:
		return "count"
	}
	return fmt.Sprintf("BatchMode(%d)", int(m))
}

func (m *BatchMode) Set(s string) error {
	switch s {
	case "sum":
		*m = BatchBySum
	case "count":
		*m = BatchByCount
	default:
		return fmt.Errorf("batch mode %q: want sum or count", s)
	}
	return nil
}

// TargetKind is the unit in which run targets and save intervals are measured.
type TargetKind int

const (
	// TargetIterations counts the summed iteration counts of aggregated points.
	TargetIterations TargetKind = iota
	// TargetPoints counts aggregated qualifying points.
	TargetPoints
	// TargetBatches counts aggregated batches.
	TargetBatches
)

func (k TargetKind) String() string {
	switch k {
	case TargetIterations:
		return "iterations"
	case TargetPoints:
		return "points"
	case TargetBatches:
		return "batches"
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

func (k *TargetKind) Set(s string) error {
	switch s {
	case "iterations":
		*k = TargetIterations
	case "points":
		*k = TargetPoints
	case "batches":
		*k = TargetBatches
	default:
		return fmt.Errorf("target kind %q: want iterations, points or batches", s)
	}
	return nil
}

// Config carries every per-run constant. It is passed explicitly to workers and the aggregator.
type Config struct {
	// SampleRegion is where candidate points c are drawn from.
	SampleRegion Region
	// HistogramRegion is the part of the plane rasterized into the histogram.
	HistogramRegion Region
	// Clip discards orbit values outside HistogramRegion instead of failing the run.
	// Zoomed views need it; full views should leave it off so a region mismatch is caught.
	Clip bool

	IterationLimit uint64
	// Bailout is the squared magnitude an orbit has to exceed to count as escaped.
	Bailout float64
	// Only points escaping after more than MinIterations iterations are kept.
	MinIterations uint64
	// Points escaping after more than RecordThreshold iterations are sent to the record sink.
	// Zero disables recording.
	RecordThreshold uint64

	ResolutionX, ResolutionY int

	Workers  int
	BaseSeed uint64

	BatchMode BatchMode
	// BatchSize is an iteration sum or a point count, depending on BatchMode.
	BatchSize uint64

	// QueueDepth bounds the number of batches waiting for the aggregator.
	// Workers block on a full queue until the aggregator catches up or the run ends.
	QueueDepth int

	TargetKind TargetKind
	// Target ends the run once reached. Zero runs until cancelled.
	Target uint64
	// SaveInterval is the progress between two image snapshots.
	SaveInterval uint64
}

// DefaultConfig returns the classic full view render.
func DefaultConfig() Config {
	return Config{
		SampleRegion:    FullSet,
		HistogramRegion: Square,
		IterationLimit:  12000,
		Bailout:         4.0,
		MinIterations:   5,
		RecordThreshold: 5000,
		ResolutionX:     1920,
		ResolutionY:     1920,
		Workers:         4,
		BaseSeed:        1988,
		BatchMode:       BatchBySum,
		BatchSize:       1_000_000,
		QueueDepth:      8,
		TargetKind:      TargetIterations,
		Target:          10_000 * 1_000_000,
		SaveInterval:    50 * 1_000_000,
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) validate() error {
	if err := c.SampleRegion.validate(); err != nil {
		return fmt.Errorf("sample %w", err)
	}
	if err := c.HistogramRegion.validate(); err != nil {
		return fmt.Errorf("histogram %w", err)
	}
	switch {
	case c.ResolutionX <= 0 || c.ResolutionY <= 0:
		return fmt.Errorf("resolution %dx%d must be positive", c.ResolutionX, c.ResolutionY)
	case c.IterationLimit == 0:
		return errors.New("iteration limit must be positive")
	case !(c.Bailout > 0) || math.IsInf(c.Bailout, 0):
		return fmt.Errorf("bailout %v must be positive and finite", c.Bailout)
	case c.MinIterations >= c.IterationLimit:
		return fmt.Errorf("min iterations %d leaves nothing below the limit %d", c.MinIterations, c.IterationLimit)
	case c.Workers <= 0:
		return fmt.Errorf("workers %d must be positive", c.Workers)
	case c.BatchMode != BatchBySum && c.BatchMode != BatchByCount:
		return fmt.Errorf("unknown %s", c.BatchMode)
	case c.BatchSize == 0:
		return errors.New("batch size must be positive")
	case c.QueueDepth <= 0:
		return fmt.Errorf("queue depth %d must be positive", c.QueueDepth)
	case c.TargetKind < TargetIterations || c.TargetKind > TargetBatches:
		return fmt.Errorf("unknown %s", c.TargetKind)
	case c.SaveInterval == 0:
		return errors.New("save interval must be positive")
	}
	return nil
}

// QualifyingPoint is a sampled c whose orbit escaped after Iterations iterations.
type QualifyingPoint struct {
	Point      complex128
	Iterations uint64
}

// Batch is the unit of work handed from a worker to the aggregator.
type Batch struct {
	Worker int
	Points []QualifyingPoint
	// Probed is the number of points drawn to fill the batch.
	Probed uint64
	// IterationSum is the summed Iterations of Points.
	IterationSum uint64
}

// Grid is a dense row-major count grid: Counts[y*Width+x].
// Sinks receive it read-only and must not retain it past the call.
type Grid struct {
	Counts        []uint64
	Width, Height int
}

// At returns the count of cell (x, y).
func (g Grid) At(x, y int) uint64 {
	return g.Counts[y*g.Width+x]
}
