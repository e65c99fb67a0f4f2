package buddha

// ImageSink persists a snapshot of the density histogram.
type ImageSink interface {
	WriteImage(g Grid) error
}

// RecordSink logs qualifying points, typically the long lived orbits, for offline analysis.
// The slice passed to WriteRecords is never reused by the caller, so a sink may keep it.
type RecordSink interface {
	WriteRecords(points []QualifyingPoint) error
}
