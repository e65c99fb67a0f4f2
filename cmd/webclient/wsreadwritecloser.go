//go:build js && wasm

package main

import (
	"io"
	"sync"
	"syscall/js"
)

// WebsocketReadWriteCloser exposes a browser WebSocket as an io.ReadWriteCloser.
// Incoming messages are concatenated into one byte stream.
type WebsocketReadWriteCloser struct {
	ws js.Value

	mu     sync.Mutex // needed because js callbacks can preempt Read() and Write() calls
	closed bool
	err    error
	queue  [][]byte // received messages not yet read

	notify chan struct{} // signalled whenever queue or closed changes
	openCh chan struct{} // closed when connected

	// read buffer for partial reads
	buf []byte
}

func NewWebsocketReadWriteCloser(ws js.Value) *WebsocketReadWriteCloser {
	c := &WebsocketReadWriteCloser{
		ws:     ws,
		notify: make(chan struct{}, 1),
		openCh: make(chan struct{}),
	}

	ws.Set("binaryType", "arraybuffer")

	ws.Set("onopen", js.FuncOf(func(js.Value, []js.Value) any {
		logScreenf("WebSocket connected.")
		c.markOpen()
		return nil
	}))

	ws.Set("onerror", js.FuncOf(func(js.Value, []js.Value) any {
		c.mu.Lock()
		c.err = io.ErrUnexpectedEOF
		c.mu.Unlock()
		c.markOpen()
		c.wake()
		return nil
	}))

	// js callbacks must not block, so messages are queued instead of sent on a channel
	ws.Set("onmessage", js.FuncOf(func(this js.Value, args []js.Value) any {
		data := args[0].Get("data")

		jsDataToBytes(data, func(b []byte) {
			c.mu.Lock()
			c.queue = append(c.queue, b)
			c.mu.Unlock()
			c.wake()
		})

		return nil
	}))

	ws.Set("onclose", js.FuncOf(func(js.Value, []js.Value) any {
		logScreenf("WebSocket closed.")
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.markOpen()
		c.wake()
		return nil
	}))

	return c
}

func (c *WebsocketReadWriteCloser) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *WebsocketReadWriteCloser) markOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.openCh:
	default:
		close(c.openCh)
	}
}

func (c *WebsocketReadWriteCloser) Read(p []byte) (int, error) {
	// First, drain existing buffer
	for len(c.buf) == 0 {
		c.mu.Lock()
		if len(c.queue) > 0 {
			c.buf = c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			break
		}
		closed, err := c.closed, c.err
		c.mu.Unlock()
		if err != nil {
			return 0, err
		}
		if closed {
			return 0, io.EOF
		}
		// No buffered data -> wait for next message
		<-c.notify
	}

	n := copy(p, c.buf)
	c.buf = c.buf[n:]

	return n, nil
}

func (c *WebsocketReadWriteCloser) Write(p []byte) (int, error) {
	if err := c.waitOpen(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, io.ErrClosedPipe
	}

	u8 := js.Global().Get("Uint8Array").New(len(p))
	js.CopyBytesToJS(u8, p)

	c.ws.Call("send", u8)
	return len(p), nil
}

func (c *WebsocketReadWriteCloser) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.markOpen()
	c.wake()
	c.ws.Call("close")
	return nil
}

func (c *WebsocketReadWriteCloser) waitOpen() error {
	<-c.openCh

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	if c.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func jsDataToBytes(data js.Value, deliver func([]byte)) {
	// Uint8Array / Uint8ClampedArray
	if data.InstanceOf(js.Global().Get("Uint8Array")) ||
		data.InstanceOf(js.Global().Get("Uint8ClampedArray")) {

		b := make([]byte, data.Get("byteLength").Int())
		js.CopyBytesToGo(b, data)
		deliver(b)
		return
	}

	// ArrayBuffer
	if data.InstanceOf(js.Global().Get("ArrayBuffer")) {
		u8 := js.Global().Get("Uint8Array").New(data)
		b := make([]byte, u8.Get("byteLength").Int())
		js.CopyBytesToGo(b, u8)
		deliver(b)
		return
	}

	// Blob -> async
	if data.InstanceOf(js.Global().Get("Blob")) {
		promise := data.Call("arrayBuffer")
		var then js.Func
		then = js.FuncOf(func(this js.Value, args []js.Value) any {
			defer then.Release()
			u8 := js.Global().Get("Uint8Array").New(args[0])
			b := make([]byte, u8.Get("byteLength").Int())
			js.CopyBytesToGo(b, u8)
			deliver(b)
			return nil
		})
		promise.Call("then", then)
		return
	}

	panic("unsupported JS binary type")
}
