package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/stream"
	"github.com/marben/irpc"
)

func TestWebsocketViewer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub := stream.NewHub()
	l, srv := webServer(ctx, "127.0.0.1:0", t.TempDir(), hub)
	defer l.Close()
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	if err := hub.WriteImage(buddha.Grid{Counts: []uint64{0, 1, 2, 3}, Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}
	irpcServer := hub.NewServer()
	served := make(chan error, 1)
	go func() { served <- irpcServer.Serve(l) }()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	c.SetReadLimit(1 << 20)
	ep := irpc.NewEndpoint(websocket.NetConn(ctx, c, websocket.MessageBinary))
	defer ep.Close()
	client, err := buddha.NewFrameProviderIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}

	f, err := client.Next(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Seq != 1 || len(f.PNG) == 0 {
		t.Fatalf("first frame: got seq %d with %d bytes", f.Seq, len(f.PNG))
	}
	// the server counts the viewer from its own goroutine
	for n := 0; n != 1; {
		if n, err = client.Viewers(); err != nil {
			t.Fatal(err)
		}
		if ctx.Err() != nil {
			t.Fatalf("viewers: got %d, want 1", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Finish()
	f, err = client.Final(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Final || f.Seq != 2 {
		t.Errorf("final frame: got seq %d final %v", f.Seq, f.Final)
	}

	irpcServer.Close()
	if err := <-served; !errors.Is(err, irpc.ErrServerClosed) {
		t.Errorf("Serve after Close: got %v, want ErrServerClosed", err)
	}
}

func TestStatus(t *testing.T) {
	hub := stream.NewHub()
	l, srv := webServer(context.Background(), "127.0.0.1:0", t.TempDir(), hub)
	defer l.Close()
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	status := func() renderStatus {
		t.Helper()
		resp, err := http.Get(ts.URL + "/status")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: got %q", ct)
		}
		var st renderStatus
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatal(err)
		}
		return st
	}

	if st := status(); st != (renderStatus{}) {
		t.Errorf("before any snapshot: got %+v", st)
	}
	if err := hub.WriteImage(buddha.Grid{Counts: []uint64{4, 0, 0, 1}, Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}
	hub.Finish()
	st := status()
	if st.Frame != 2 || !st.Final || st.PNGBytes == 0 || st.Viewers != 0 {
		t.Errorf("after finish: got %+v", st)
	}
}

func TestWebServerStaticAndMetrics(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas></canvas>"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, srv := webServer(context.Background(), "127.0.0.1:0", dir, stream.NewHub())
	defer l.Close()
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	get := func(path string) string {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}

	if body := get("/"); !strings.Contains(body, "<canvas>") {
		t.Errorf("index: got %q", body)
	}
	body := get("/metrics")
	for _, name := range []string{"buddhabrot_points_probed_total", "buddhabrot_viewers"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics: %s missing", name)
		}
	}
}

func TestWebsocketListenerClose(t *testing.T) {
	l := NewWSListener(context.Background(), "test/ws")
	if l.Addr().Network() != "ws" || l.Addr().String() != "test/ws" {
		t.Errorf("addr: got %s %s", l.Addr().Network(), l.Addr())
	}
	l.Close()
	if _, err := l.Accept(); err == nil {
		t.Error("Accept after Close: got nil error")
	}
}
