// Package stream publishes progressive snapshots of a render to remote viewers.
//
// Hub implements buddha.FrameProvider and is offered to viewers as an irpc service,
// so the same server handles plain TCP and websocket connections.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/imagesink"
	"github.com/marben/buddhabrot/internal/metrics"
	"github.com/marben/irpc"
)

// ErrNoImage is returned when a render finished without producing a snapshot.
var ErrNoImage = errors.New("no image published")

var (
	_ buddha.FrameProvider = (*Hub)(nil)
	_ buddha.ImageSink     = (*Hub)(nil)
)

// Hub keeps the latest snapshot and wakes every viewer waiting for a newer one.
type Hub struct {
	m       sync.Mutex
	latest  buddha.Frame
	have    bool
	done    bool
	changed chan struct{} // closed and replaced whenever latest or done changes
	viewers int

	finished chan struct{}
	once     sync.Once
}

func NewHub() *Hub {
	return &Hub{
		changed:  make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// WriteImage encodes g as PNG and publishes it.
func (h *Hub) WriteImage(g buddha.Grid) error {
	var buf bytes.Buffer
	if err := imagesink.EncodePNG(&buf, g); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	h.m.Lock()
	defer h.m.Unlock()
	if !h.done {
		h.publish(buf.Bytes(), false)
	}
	return nil
}

// Finish republishes the latest snapshot marked as final. Later snapshots are ignored.
func (h *Hub) Finish() {
	h.once.Do(func() {
		h.m.Lock()
		defer h.m.Unlock()
		if h.have {
			h.publish(h.latest.PNG, true)
		} else {
			h.broadcast()
		}
		h.done = true
		close(h.finished)
	})
}

// publish must be called with h.m held.
func (h *Hub) publish(png []byte, final bool) {
	h.latest = buddha.Frame{Seq: h.latest.Seq + 1, Final: final, PNG: png}
	h.have = true
	h.broadcast()
}

// broadcast must be called with h.m held.
func (h *Hub) broadcast() {
	close(h.changed)
	h.changed = make(chan struct{})
}

// Latest returns the newest frame, if any.
func (h *Hub) Latest() (buddha.Frame, bool) {
	h.m.Lock()
	defer h.m.Unlock()
	return h.latest, h.have
}

// Next returns the newest frame with a sequence number above after, waiting for one if needed.
// Once the render is finished it returns the final frame right away, or ErrNoImage if there is none.
func (h *Hub) Next(ctx context.Context, after uint64) (buddha.Frame, error) {
	for {
		h.m.Lock()
		f, have, done, changed := h.latest, h.have, h.done, h.changed
		h.m.Unlock()

		switch {
		case have && (f.Seq > after || f.Final):
			return f, nil
		case done:
			return buddha.Frame{}, ErrNoImage
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return buddha.Frame{}, context.Cause(ctx)
		}
	}
}

// Final blocks until Finish has been called and returns the final frame.
func (h *Hub) Final(ctx context.Context) (buddha.Frame, error) {
	select {
	case <-h.finished:
	case <-ctx.Done():
		return buddha.Frame{}, context.Cause(ctx)
	}
	f, ok := h.Latest()
	if !ok {
		return buddha.Frame{}, ErrNoImage
	}
	return f, nil
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() (int, error) {
	h.m.Lock()
	defer h.m.Unlock()
	return h.viewers, nil
}

func (h *Hub) addViewer(delta int) int {
	h.m.Lock()
	defer h.m.Unlock()
	h.viewers += delta
	metrics.Viewers.Set(float64(h.viewers))
	return h.viewers
}

// NewServer returns an irpc server offering h on every listener it serves.
func (h *Hub) NewServer() *irpc.Server {
	return irpc.NewServer(
		irpc.WithServices(buddha.NewFrameProviderIrpcService(h)),
		irpc.WithOnConnect(h.track),
	)
}

// track counts ep as a viewer until its connection ends.
func (h *Hub) track(ep *irpc.Endpoint) {
	log.Printf("viewer connected: %s (viewers: %d)", ep.RemoteAddr(), h.addViewer(1))
	<-ep.Context().Done()
	log.Printf("viewer gone: %s (viewers: %d)", ep.RemoteAddr(), h.addViewer(-1))
}
