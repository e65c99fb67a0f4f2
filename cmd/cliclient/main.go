// cliclient is a CLI viewer for the Buddhabrot server.
// It connects over TCP or websocket, asks the server's FrameProvider for snapshots and saves one of them as a PNG file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"

	"github.com/coder/websocket"
	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/stream"
	"github.com/marben/irpc"
)

// maxMessage bounds a single websocket message, large enough for a PNG of a big render.
const maxMessage = 256 << 20

// main is the entry point for the CLI client.
// It runs the client logic and logs any fatal errors.
func main() {
	log.Printf("Starting CLI client...")
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run connects to the server, waits for the requested snapshot and saves it as a PNG file.
// Returns an error if any step fails.
func run() error {
	addr := flag.String("addr", ":8081", "server address: host:port for tcp, ws://host:port/ws for websocket")
	wait := flag.Bool("wait", false, "wait for the final image instead of saving the current one")
	filename := flag.String("o", "buddhabrot.png", "output file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 1: Connect to the server
	log.Printf("Connecting to Buddhabrot server on %s...", *addr)
	conn, err := dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	ep := irpc.NewEndpoint(conn)
	defer ep.Close()

	// Step 2: Create a client for the FrameProvider interface
	client, err := buddha.NewFrameProviderIrpcClient(ep)
	if err != nil {
		return fmt.Errorf("failed to create FrameProvider client: %w", err)
	}
	if n, err := client.Viewers(); err == nil {
		log.Printf("Connected, %d viewer(s) on the server", n)
	}

	// Step 3: Ask for snapshots until we have the one we want
	frame, err := fetch(ctx, client, *wait)
	if err != nil {
		return err
	}

	// Step 4: Save the received image, it already is a PNG
	log.Printf("Saving snapshot %d to %q...", frame.Seq, *filename)
	if err := os.WriteFile(*filename, frame.PNG, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if frame.Final {
		log.Printf("Fully rendered image saved to %q", *filename)
	} else {
		log.Printf("Work in progress image saved to %q", *filename)
	}
	return nil
}

// dial opens a plain TCP connection, or a websocket connection wrapped as net.Conn for ws:// and wss:// addresses.
func dial(ctx context.Context, addr string) (net.Conn, error) {
	if !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://") {
		return net.Dial("tcp", addr)
	}
	c, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket.Dial: %w", err)
	}
	c.SetReadLimit(maxMessage)
	return websocket.NetConn(ctx, c, websocket.MessageBinary), nil
}

// fetch returns the newest snapshot, or with waitFinal follows the render until its final snapshot.
// When the server goes away before the final snapshot the latest one received is returned.
func fetch(ctx context.Context, p buddha.FrameProvider, waitFinal bool) (buddha.Frame, error) {
	if !waitFinal {
		f, err := p.Next(ctx, 0)
		if err != nil {
			return buddha.Frame{}, fmt.Errorf("client.Next: %w", err)
		}
		log.Printf("Received snapshot %d (%d bytes)", f.Seq, len(f.PNG))
		return f, nil
	}

	last, err := stream.Watch(ctx, p, func(f buddha.Frame) error {
		log.Printf("Received snapshot %d (%d bytes)", f.Seq, len(f.PNG))
		return nil
	})
	if err != nil {
		if last.Seq == 0 {
			return buddha.Frame{}, err
		}
		log.Printf("render ended before the final image: %v", err)
	}
	return last, nil
}
