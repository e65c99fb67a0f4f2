package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/marben/buddhabrot/internal/stream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// webServer serves the web viewer from staticDir, /metrics and /status.
// Connections upgraded on /ws come out of the returned listener, which the irpc server
// serves the hub's frames on just like the tcp one.
func webServer(ctx context.Context, addr, staticDir string, hub *stream.Hub) (*WebsocketListener, *http.Server) {
	l := NewWSListener(ctx, addr+"/ws")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", websocketHandler(l))
	mux.HandleFunc("GET /status", statusHandler(hub))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /", http.FileServer(http.Dir(staticDir)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("listening on http://%s", addr)
	return l, srv
}

// renderStatus is what /status reports about the render.
type renderStatus struct {
	Frame    uint64 `json:"frame"`
	Final    bool   `json:"final"`
	PNGBytes int    `json:"png_bytes"`
	Viewers  int    `json:"viewers"`
}

// statusHandler reports the latest frame and the number of connected viewers as JSON,
// for checking on a render without pulling images.
func statusHandler(hub *stream.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st renderStatus
		if f, ok := hub.Latest(); ok {
			st.Frame, st.Final, st.PNGBytes = f.Seq, f.Final, len(f.PNG)
		}
		st.Viewers, _ = hub.Viewers()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.Printf("status: %v", err)
		}
	}
}

// websocketHandler upgrades the request and queues the connection for WebsocketListener.Accept.
// Connections arriving after the listener closed are turned away.
func websocketHandler(l *WebsocketListener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // TODO: restrict to the configured -http host
		})
		if err != nil {
			log.Printf("websocket accept from %s: %v", r.RemoteAddr, err)
			return
		}

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// WebsocketListener is a net.Listener handing out upgraded websocket connections,
// so that an irpc server can serve them like any other stream.
type WebsocketListener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func NewWSListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

// Accept waits for the next upgraded connection. Every irpc packet the server writes
// travels as a binary message, viewers reassemble the stream on their side.
func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

// Close stops Accept and closes the connections it handed out.
func (l *WebsocketListener) Close() error {
	l.cancel()
	return nil
}

type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}
