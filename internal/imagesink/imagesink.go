// Package imagesink turns count grids into greyscale images and persists them.
package imagesink

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strings"
	"time"

	buddha "github.com/marben/buddhabrot"
)

// Normalize scales every cell to floor(count*255/max).
// An all zero grid, where nothing has been sampled yet, gives a black image.
func Normalize(g buddha.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	var peak uint64
	for _, c := range g.Counts {
		peak = max(peak, c)
	}
	if peak == 0 {
		return img
	}
	for y := 0; y < g.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+g.Width]
		for x := range row {
			// count <= peak keeps the high word below peak, Div64 cannot overflow
			hi, lo := bits.Mul64(g.Counts[y*g.Width+x], 255)
			q, _ := bits.Div64(hi, lo, peak)
			row[x] = uint8(q)
		}
	}
	return img
}

// EncodePNG normalizes g and writes it to w as a greyscale PNG.
func EncodePNG(w io.Writer, g buddha.Grid) error {
	return png.Encode(w, Normalize(g))
}

// PNGFile writes every snapshot over the same file.
// The file is replaced atomically so readers never see a partial image.
type PNGFile struct {
	Path string
}

func (f PNGFile) WriteImage(g buddha.Grid) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", f.Path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := EncodePNG(tmp, g); err != nil {
		return fmt.Errorf("encode %q: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("rename to %q: %w", f.Path, err)
	}
	return nil
}

// Multi writes each snapshot to all sinks, even when some of them fail.
func Multi(sinks ...buddha.ImageSink) buddha.ImageSink {
	return multi(sinks)
}

type multi []buddha.ImageSink

func (m multi) WriteImage(g buddha.Grid) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteImage(g); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TimestampedName returns prefix + t in UTC + suffix, with colons replaced so the name is portable.
func TimestampedName(prefix, suffix string, t time.Time) string {
	stamp := strings.ReplaceAll(t.UTC().Format("2006-01-02 15:04:05.000000000"), ":", "-")
	return prefix + stamp + suffix
}
