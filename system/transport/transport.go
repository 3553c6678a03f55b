// Package transport provides the bulk transfer path between the driver and
// the strip controller, serializing round-trips and handling detachment.
package transport

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ledcore/ws2812d/system/wire"

	"github.com/pkg/errors"
)

// RoundTripTimeout bounds every request/response pair. Expiry surfaces as
// ErrTimeout on the calling operation, never as a crash.
const RoundTripTimeout = time.Second

var (
	ErrNotConnected = errors.New("transport: device disconnected")
	ErrTimeout      = errors.New("transport: round trip timed out")
)

// Endpoint is one open bulk pipe pair to the device. The physical USB device
// and the in-process firmware emulator both implement this.
type Endpoint interface {
	Write(buf []byte) (int, error)
	Read(buf []byte) (int, error)
	Close() error
}

// Conn wraps an Endpoint with the session-wide I/O lock. Exactly one
// transfer is in flight at a time; concurrent callers block until the lock
// is free, in arrival order only.
type Conn struct {
	mu           sync.Mutex
	endpoint     Endpoint
	disconnected int32
}

// NewConn returns a connection over the given endpoint
func NewConn(ep Endpoint) *Conn {
	return &Conn{
		endpoint: ep,
	}
}

type ioResult struct {
	frame wire.Frame
	err   error
}

// Send writes one frame to the device and does not wait for a reply
func (c *Conn) Send(f wire.Frame) error {
	if atomic.LoadInt32(&c.disconnected) == 1 {
		return ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	done := make(chan ioResult, 1)
	go func() {
		_, err := c.endpoint.Write(f[:])
		done <- ioResult{err: err}
	}()

	select {
	case res := <-done:
		return errors.Wrap(res.err, "transport: send")
	case <-time.After(RoundTripTimeout):
		return ErrTimeout
	}
}

// RoundTrip writes a request frame and blocks for the single reply frame.
// The entire exchange holds the I/O lock and is bounded by RoundTripTimeout.
//
// On timeout the I/O goroutine stays blocked in the endpoint read and will
// absorb the late reply when it eventually arrives; that frame is dropped,
// not returned to a later caller. A device slow enough to hit this
// repeatedly should be treated as detached and reopened.
func (c *Conn) RoundTrip(req wire.Frame) (wire.Frame, error) {
	var reply wire.Frame
	if atomic.LoadInt32(&c.disconnected) == 1 {
		return reply, ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	done := make(chan ioResult, 1)
	go func() {
		var res ioResult
		if _, err := c.endpoint.Write(req[:]); err != nil {
			res.err = errors.Wrap(err, "transport: request")
			done <- res
			return
		}
		buf := make([]byte, wire.FrameSize)
		if _, err := c.endpoint.Read(buf); err != nil {
			res.err = errors.Wrap(err, "transport: response")
			done <- res
			return
		}
		res.frame, res.err = wire.Decode(buf)
		done <- res
	}()

	select {
	case res := <-done:
		return res.frame, res.err
	case <-time.After(RoundTripTimeout):
		return reply, ErrTimeout
	}
}

// MarkDisconnected flips the sticky detachment flag. Every subsequent Send
// and RoundTrip fails fast with ErrNotConnected; transfers already past the
// check fail naturally through the endpoint.
func (c *Conn) MarkDisconnected() {
	if atomic.CompareAndSwapInt32(&c.disconnected, 0, 1) {
		log.Println("[transport] device detached, failing fast from now on")
	}
}

// Connected reports whether the device is still attached
func (c *Conn) Connected() bool {
	return atomic.LoadInt32(&c.disconnected) == 0
}

// Close releases the endpoint
func (c *Conn) Close() error {
	c.MarkDisconnected()
	return c.endpoint.Close()
}
