// buddhabrot samples escaping orbits until the target is reached and writes the density image.
// Long lived orbits are logged to a timestamped JSON lines file next to the image.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	buddha "github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/internal/cli"
	"github.com/marben/buddhabrot/internal/imagesink"
	"github.com/marben/buddhabrot/internal/pipeline"
	"github.com/marben/buddhabrot/internal/records"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func run() error {
	cfg := buddha.DefaultConfig()
	cli.Bind(flag.CommandLine, &cfg)
	outDir := flag.String("out", "output", "directory for the image and the points log")
	image := flag.String("image", "buddhabrot.png", "image file name inside -out")
	traceOut := flag.String("trace", "", "write otel spans as JSON to this file, - for stdout")
	flag.Parse()

	// fail before anything touches the disk
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	sinks := pipeline.Sinks{Images: imagesink.PNGFile{Path: filepath.Join(*outDir, *image)}}
	if cfg.RecordThreshold > 0 {
		name := imagesink.TimestampedName("points_", ".json", time.Now())
		recs, err := records.Create(filepath.Join(*outDir, name))
		if err != nil {
			return err
		}
		defer recs.Close()
		sinks.Records = recs
		log.Printf("logging orbits longer than %d iterations to %q", cfg.RecordThreshold, name)
	}

	if *traceOut != "" {
		shutdown, err := cli.StartTracing(*traceOut, "buddhabrot")
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("trace shutdown: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("sampling %s with %d workers, rendering %s at %dx%d",
		cfg.SampleRegion, cfg.Workers, cfg.HistogramRegion, cfg.ResolutionX, cfg.ResolutionY)
	if _, err := pipeline.Run(ctx, cfg, sinks); err != nil {
		return err
	}
	log.Printf("image saved to %q", filepath.Join(*outDir, *image))
	return nil
}
