// Package firmware mirrors the strip controller: it consumes the same
// 64-byte frames the driver emits, keeps the LED output buffer, and answers
// read requests. Backed by a real Output it drives hardware; backed by a
// recording Output it doubles as the loopback device for tests and dry runs.
package firmware

import (
	"log"
	"sync"

	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/system/wire"

	"github.com/pkg/errors"
)

// MaxPixels is the largest strip the controller can drive
const MaxPixels = 1000

// Output is the physical LED line. Push must write all pixels before
// returning; the device never issues concurrent pushes.
type Output interface {
	Push(pixels []pixel.Pixel) error
}

// Discard is an Output without hardware behind it
type Discard struct{}

func (Discard) Push([]pixel.Pixel) error { return nil }

// Device processes one frame at a time. It implements transport.Endpoint,
// so it can sit directly behind a transport.Conn.
type Device struct {
	mu     sync.Mutex // the single-threaded frame loop
	output Output

	buffer []pixel.Pixel
	count  uint16
	fill   uint16
	ready  bool

	replies chan wire.Frame
	closed  chan struct{}
}

// New returns a device with an empty strip
func New(out Output) *Device {
	return &Device{
		output:  out,
		buffer:  make([]pixel.Pixel, MaxPixels),
		replies: make(chan wire.Frame, 4),
		closed:  make(chan struct{}),
	}
}

// Write accepts exactly one frame. Unknown opcodes are dropped, matching the
// controller's tolerance for hosts newer than itself. A frame completing the
// pixel fill blocks until the physical push finishes; no further frame is
// accepted in the meantime.
func (d *Device) Write(buf []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, errors.New("firmware: device closed")
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := wire.Decode(buf)
	if err != nil {
		if errors.Is(err, wire.ErrUnknownOpcode) {
			log.Printf("[firmware] dropping frame: %v\n", err)
			return len(buf), nil
		}
		return 0, err
	}

	switch frame.Opcode() {
	case wire.OpLedData:
		d.handleLedData(frame)
	case wire.OpLedCount:
		d.handleLedCount(frame)
	case wire.OpRequestLen:
		d.replies <- wire.EncodeCountReply(d.count, MaxPixels)
	case wire.OpRequestLedData:
		d.handleRequestLedData(frame)
	case wire.OpClear:
		d.clear()
	}

	if d.ready {
		if err := d.output.Push(d.buffer[:d.count]); err != nil {
			log.Printf("[firmware] output push failed: %v\n", err)
		}
		d.ready = false
	}
	return len(buf), nil
}

// Read blocks until a reply frame is queued and copies it out
func (d *Device) Read(buf []byte) (int, error) {
	select {
	case frame := <-d.replies:
		return copy(buf, frame[:]), nil
	case <-d.closed:
		return 0, errors.New("firmware: device closed")
	}
}

// Close shuts the device down; blocked reads return an error
func (d *Device) Close() error {
	select {
	case <-d.closed:
	default:
		close(d.closed)
	}
	return nil
}

func (d *Device) handleLedData(frame wire.Frame) {
	for _, p := range frame.PixelData(wire.BlockPixels) {
		if d.fill >= d.count {
			break
		}
		d.buffer[d.fill] = p
		d.fill++
	}
	if d.fill == d.count {
		d.ready = true
		d.fill = 0
	}
}

func (d *Device) handleLedCount(frame wire.Frame) {
	count := frame.Count()
	if count > MaxPixels {
		count = MaxPixels
	}
	d.count = count
	d.fill = 0
	d.clear()
}

func (d *Device) handleRequestLedData(frame wire.Frame) {
	start := int(frame.BlockIndex()) * wire.BlockPixels
	end := start + wire.BlockPixels
	if start > int(d.count) {
		start = int(d.count)
	}
	if end > int(d.count) {
		end = int(d.count)
	}
	d.replies <- wire.EncodeLedData(d.buffer[start:end])
}

func (d *Device) clear() {
	for i := range d.buffer {
		d.buffer[i] = pixel.Pixel{}
	}
	if err := d.output.Push(d.buffer); err != nil {
		log.Printf("[firmware] output push failed: %v\n", err)
	}
}
