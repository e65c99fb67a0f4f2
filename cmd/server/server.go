// server samples the Buddhabrot and offers progressive snapshots to viewers over irpc.
// Viewers connect over plain TCP (cliclient) or websocket (cliclient, webclient)
// and ask for each newer snapshot until they get the final one.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/cli"
	"github.com/marben/buddhabrot/internal/imagesink"
	"github.com/marben/buddhabrot/internal/pipeline"
	"github.com/marben/buddhabrot/internal/stream"
	"github.com/marben/irpc"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	cfg := buddha.DefaultConfig()
	// smaller default image so that frames stay cheap to push to browsers
	cfg.ResolutionX, cfg.ResolutionY = 1024, 1024
	cli.Bind(flag.CommandLine, &cfg)
	tcpAddr := flag.String("tcp", ":8081", "address for tcp viewers")
	httpAddr := flag.String("http", ":8080", "address for the web viewer, websocket and /metrics")
	staticDir := flag.String("static", "./static", "directory with index.html and main.wasm")
	imagePath := flag.String("image", "", "also write every snapshot to this png file")
	exit := flag.Bool("exit", false, "exit once the run is finished instead of serving the final image")
	traceOut := flag.String("trace", "", "write otel spans as JSON to this file, - for stdout")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return err
	}

	if *traceOut != "" {
		shutdownTracing, err := cli.StartTracing(*traceOut, "buddhabrot-server")
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Printf("trace shutdown: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// hub is the image sink of the run and the source of frames for every viewer
	hub := stream.NewHub()
	var images buddha.ImageSink = hub
	if *imagePath != "" {
		images = imagesink.Multi(hub, imagesink.PNGFile{Path: *imagePath})
	}

	// TCP
	log.Printf("tcp listening on %s", *tcpAddr)
	tcpListener, err := net.Listen("tcp", *tcpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}
	defer tcpListener.Close()

	// WEBSOCKET
	websocketListener, httpServer := webServer(ctx, *httpAddr, *staticDir, hub)
	defer websocketListener.Close()

	// httpServer provides index.html, main.wasm, /metrics and /status along with the websocket endpoint
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("httpServer: %v", err)
		}
	}()

	// irpcServer offers the hub as buddha.FrameProvider; it can serve multiple listeners, in this case both tcp and websocket
	irpcServer := hub.NewServer()
	defer irpcServer.Close()
	for _, l := range []net.Listener{tcpListener, websocketListener} {
		go func() {
			if err := irpcServer.Serve(l); err != nil && !errors.Is(err, irpc.ErrServerClosed) {
				log.Printf("irpcServer.Serve %s: %v", l.Addr().Network(), err)
			}
		}()
	}

	log.Printf("sampling %s with %d workers, rendering %s at %dx%d",
		cfg.SampleRegion, cfg.Workers, cfg.HistogramRegion, cfg.ResolutionX, cfg.ResolutionY)
	progress, runErr := pipeline.Run(ctx, cfg, pipeline.Sinks{Images: images})
	hub.Finish()
	if runErr != nil {
		return runErr
	}
	viewers, _ := hub.Viewers()
	log.Printf("render finished after %d iterations, viewers: %d", progress.Iterations, viewers)

	if !*exit {
		log.Printf("serving the final image until interrupted")
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
