//go:build js && wasm

// webclient is a WASM viewer for the Buddhabrot server.
// It connects over websocket, follows the server's FrameProvider and draws every new snapshot onto the page canvas.

package main

import (
	"context"
	"fmt"
	"log"
	"syscall/js"
	"time"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/stream"
	"github.com/marben/irpc"
)

// main is the entry point for the WASM web client.
func main() {
	logScreenf("Starting WASM web client...")

	// Step 1: Determine server address for WebSocket connection
	loc := js.Global().Get("window").Get("location")
	host := loc.Get("host").String()
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketUrl := proto + "://" + host + "/ws"

	// Step 2: Connect to server via WebSocket
	logScreenf("Connecting to Buddhabrot server at %s...", websocketUrl)
	websocket := js.Global().Get("WebSocket").New(websocketUrl)
	websocketRWC := NewWebsocketReadWriteCloser(websocket)
	endpoint := irpc.NewEndpoint(websocketRWC)

	// Step 3: Create a client for the FrameProvider interface
	client, err := buddha.NewFrameProviderIrpcClient(endpoint)
	if err != nil {
		logFatalf("failed to create FrameProvider client: %v", err)
	}

	// Step 4: Draw frames as the server produces them
	if err := framesLoop(endpoint.Context(), client); err != nil {
		logFatalf("framesLoop: %v", err)
	}

	// Step 5: Block main goroutine to keep the final image and the log on the page
	select {}
}

// framesLoop asks for newer frames until the final one and draws each of them.
func framesLoop(ctx context.Context, client *buddha.FrameProviderIrpcClient) error {
	start := time.Now()
	last, err := stream.Watch(ctx, client, func(f buddha.Frame) error {
		if err := drawFrame(f.PNG); err != nil {
			return fmt.Errorf("frame %d: %w", f.Seq, err)
		}
		viewers, err := client.Viewers()
		if err != nil {
			return fmt.Errorf("client.Viewers: %w", err)
		}
		hudSetFrame(f.Seq, viewers, time.Since(start))
		return nil
	})
	if err != nil {
		return err
	}
	logScreenf("Final image %d received after %s.", last.Seq, time.Since(start).Round(time.Second))
	return nil
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}

// hudSetFrame updates the HUD with the number of the last snapshot, the viewer count and the time since connecting.
func hudSetFrame(seq uint64, viewers int, elapsed time.Duration) {
	doc := js.Global().Get("document")
	doc.Call("getElementById", "frame").Set("textContent", seq)
	doc.Call("getElementById", "viewers").Set("textContent", viewers)
	doc.Call("getElementById", "elapsed").Set("textContent", elapsed.Round(time.Second).String())
}
