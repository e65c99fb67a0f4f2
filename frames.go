package buddha

import "context"

// Frame is one PNG encoded snapshot of a running render.
type Frame struct {
	Seq   uint64
	Final bool
	PNG   []byte
}

// FrameProvider hands snapshots of a render to remote viewers.
type FrameProvider interface {
	// Next returns the newest frame with a sequence number above after, waiting for one if needed.
	// Once the render is finished it returns the final frame right away.
	Next(ctx context.Context, after uint64) (Frame, error)
	// Final waits for the render to finish and returns the final frame.
	Final(ctx context.Context) (Frame, error)
	// Viewers returns the number of connected viewers.
	Viewers() (int, error)
}
