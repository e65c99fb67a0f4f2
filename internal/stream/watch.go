package stream

import (
	"context"
	"fmt"

	buddha "github.com/marben/buddhabrot"
)

// Watch calls fn with every new frame p hands out, until the final one.
// It returns the last frame passed to fn.
func Watch(ctx context.Context, p buddha.FrameProvider, fn func(buddha.Frame) error) (buddha.Frame, error) {
	var last buddha.Frame
	for {
		f, err := p.Next(ctx, last.Seq)
		if err != nil {
			return last, fmt.Errorf("next frame after %d: %w", last.Seq, err)
		}
		if err := fn(f); err != nil {
			return last, err
		}
		last = f
		if f.Final {
			return last, nil
		}
	}
}
