package stream

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net"
	"strings"
	"testing"
	"time"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/metrics"
	"github.com/marben/irpc"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func grid(v uint64) buddha.Grid {
	return buddha.Grid{Counts: []uint64{0, v, v / 2, 1}, Width: 2, Height: 2}
}

// eventually polls cond until it holds or a few seconds have passed.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubPublishes(t *testing.T) {
	h := NewHub()
	if _, ok := h.Latest(); ok {
		t.Fatal("new hub has a frame")
	}
	if err := h.WriteImage(grid(10)); err != nil {
		t.Fatal(err)
	}
	f, ok := h.Latest()
	if !ok || f.Seq != 1 || f.Final {
		t.Fatalf("latest: got seq %d final %v, %v", f.Seq, f.Final, ok)
	}
	img, err := png.Decode(bytes.NewReader(f.PNG))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("bounds: got %v", b)
	}
}

func TestHubNextWaitsForNewerFrame(t *testing.T) {
	h := NewHub()
	got := make(chan buddha.Frame, 1)
	go func() {
		f, err := h.Next(context.Background(), 0)
		if err != nil {
			t.Error(err)
		}
		got <- f
	}()

	if err := h.WriteImage(grid(4)); err != nil {
		t.Fatal(err)
	}
	select {
	case f := <-got:
		if f.Seq != 1 {
			t.Errorf("seq: got %d, want 1", f.Seq)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not wake up on a new frame")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := h.Next(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("nothing newer: got %v, want deadline exceeded", err)
	}
}

func TestHubNextSkipsToNewest(t *testing.T) {
	h := NewHub()
	for i := 0; i < 5; i++ {
		if err := h.WriteImage(grid(uint64(i + 2))); err != nil {
			t.Fatal(err)
		}
	}
	f, err := h.Next(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if f.Seq != 5 {
		t.Errorf("seq: got %d, want 5", f.Seq)
	}
}

func TestHubFinal(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := h.Final(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("before finish: got %v, want deadline exceeded", err)
	}

	if err := h.WriteImage(grid(4)); err != nil {
		t.Fatal(err)
	}
	h.Finish()
	h.Finish()
	if err := h.WriteImage(grid(8)); err != nil {
		t.Fatal(err)
	}

	f, err := h.Final(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !f.Final || f.Seq != 2 {
		t.Errorf("final: got seq %d final %v, want seq 2 final", f.Seq, f.Final)
	}
	// a viewer that already has the final frame gets it again instead of waiting forever
	if f, err := h.Next(context.Background(), 2); err != nil || !f.Final {
		t.Errorf("next after final: got seq %d final %v, %v", f.Seq, f.Final, err)
	}
}

func TestHubFinishedEmpty(t *testing.T) {
	h := NewHub()
	waiting := make(chan error, 1)
	go func() {
		_, err := h.Next(context.Background(), 0)
		waiting <- err
	}()
	h.Finish()

	if err := <-waiting; !errors.Is(err, ErrNoImage) {
		t.Errorf("waiting Next: got %v, want ErrNoImage", err)
	}
	if _, err := h.Final(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Errorf("Final: got %v, want ErrNoImage", err)
	}
}

// pipeClient connects an irpc client to a service backed by h over an in-memory pipe.
func pipeClient(t *testing.T, h *Hub) *buddha.FrameProviderIrpcClient {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	serverEp := irpc.NewEndpoint(serverConn, irpc.WithEndpointServices(buddha.NewFrameProviderIrpcService(h)))
	t.Cleanup(func() { serverEp.Close() })
	clientEp := irpc.NewEndpoint(clientConn)
	t.Cleanup(func() { clientEp.Close() })

	client, err := buddha.NewFrameProviderIrpcClient(clientEp)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestFrameProviderOverIrpc(t *testing.T) {
	h := NewHub()
	client := pipeClient(t, h)

	if err := h.WriteImage(grid(9)); err != nil {
		t.Fatal(err)
	}
	want, _ := h.Latest()
	f, err := client.Next(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Seq != want.Seq || f.Final || !bytes.Equal(f.PNG, want.PNG) {
		t.Errorf("next: got seq %d final %v with %d bytes, want seq %d with %d bytes",
			f.Seq, f.Final, len(f.PNG), want.Seq, len(want.PNG))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Next(ctx, f.Seq); err == nil {
		t.Error("next with nothing newer: got nil error")
	}

	h.Finish()
	f, err = client.Final(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !f.Final || f.Seq != 2 {
		t.Errorf("final: got seq %d final %v", f.Seq, f.Final)
	}
}

func TestFrameProviderErrorOverIrpc(t *testing.T) {
	h := NewHub()
	client := pipeClient(t, h)
	h.Finish()

	_, err := client.Next(context.Background(), 0)
	if err == nil || !strings.Contains(err.Error(), ErrNoImage.Error()) {
		t.Errorf("got %v, want %q", err, ErrNoImage)
	}
}

func TestServerTracksViewers(t *testing.T) {
	h := NewHub()
	srv := h.NewServer()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(l) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	ep := irpc.NewEndpoint(conn)
	client, err := buddha.NewFrameProviderIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}
	eventually(t, "viewer to be counted", func() bool {
		n, err := client.Viewers()
		return err == nil && n == 1
	})
	if got := testutil.ToFloat64(metrics.Viewers); got != 1 {
		t.Errorf("viewers gauge: got %v, want 1", got)
	}

	ep.Close()
	eventually(t, "viewer to leave", func() bool {
		n, _ := h.Viewers()
		return n == 0
	})
	if got := testutil.ToFloat64(metrics.Viewers); got != 0 {
		t.Errorf("viewers gauge: got %v, want 0", got)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := <-served; !errors.Is(err, irpc.ErrServerClosed) {
		t.Errorf("Serve after close: got %v, want irpc.ErrServerClosed", err)
	}
}

func TestWatchUntilFinal(t *testing.T) {
	h := NewHub()
	go func() {
		for i := 0; i < 3; i++ {
			if err := h.WriteImage(grid(uint64(i + 2))); err != nil {
				t.Error(err)
			}
		}
		h.Finish()
	}()

	var seen []uint64
	last, err := Watch(context.Background(), h, func(f buddha.Frame) error {
		seen = append(seen, f.Seq)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !last.Final || last.Seq != 4 {
		t.Errorf("last: got seq %d final %v, want seq 4 final", last.Seq, last.Final)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("frames out of order: %v", seen)
		}
	}
}

func TestWatchStopsOnError(t *testing.T) {
	h := NewHub()
	if err := h.WriteImage(grid(3)); err != nil {
		t.Fatal(err)
	}
	errDraw := errors.New("draw failed")
	last, err := Watch(context.Background(), h, func(buddha.Frame) error { return errDraw })
	if !errors.Is(err, errDraw) {
		t.Errorf("got %v, want %v", err, errDraw)
	}
	if last.Seq != 0 {
		t.Errorf("last: got seq %d, want none", last.Seq)
	}
}
