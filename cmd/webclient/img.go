//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"syscall/js"
)

// drawFrame decodes a PNG snapshot and puts it on the canvas, resizing the canvas to the image.
func drawFrame(pngData []byte) error {
	src, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return fmt.Errorf("decode png: %w", err)
	}

	// ImageData wants RGBA; snapshots are greyscale
	img := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	document := js.Global().Get("document")
	canvas := document.Call("getElementById", "myCanvas")
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if canvas.Get("width").Int() != width || canvas.Get("height").Int() != height {
		canvas.Set("width", width)
		canvas.Set("height", height)
	}
	ctx := canvas.Call("getContext", "2d")

	jsData := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(jsData, img.Pix)

	imageData := js.Global().Get("ImageData").New(jsData, width, height)
	ctx.Call("putImageData", imageData, 0, 0)
	return nil
}
