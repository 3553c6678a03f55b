// Package strip owns the per-device session: the primary pixel buffer, the
// mode state machine, the queue of pending read requests, and the adapter
// turning application writes and reads into USB transfers.
package strip

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/system/transport"
	"github.com/ledcore/ws2812d/system/wire"

	"github.com/pkg/errors"
)

var (
	// ErrTaskCreation is returned when the blink refresh task cannot be started
	ErrTaskCreation = errors.New("strip: cannot start blink task")
	// ErrTaskStop is returned when the blink refresh task does not terminate
	ErrTaskStop = errors.New("strip: blink task did not stop")
)

// Session aggregates everything tied to one attached device. It implements
// devfile.Handler: parsed packets dispatch through the active mode.
//
// Application-facing calls serialize on opMu; the blink refresh task runs
// beside them and contends only on the buffer locks and the transport lock.
type Session struct {
	conn *transport.Conn

	opMu     sync.Mutex
	primary  *pixel.Buffer
	mode     mode
	requests requestQueue

	refs     int32
	teardown sync.Once

	// startTask launches the blink refresh task. Swapped out in tests to
	// simulate task creation failure.
	startTask func(b *blinkMode) error
}

var _ devfile.Handler = &Session{}

// NewSession attaches a session to the device behind conn. A fresh session
// is in static mode with an empty primary buffer.
func NewSession(conn *transport.Conn) *Session {
	s := &Session{
		conn:      conn,
		primary:   pixel.NewBuffer(0),
		refs:      1,
		startTask: startBlinkTask,
	}
	s.mode = &staticMode{session: s}
	return s
}

// Retain adds an owner (an open handle) to the session
func (s *Session) Retain() {
	atomic.AddInt32(&s.refs, 1)
}

// Release drops one owner. The last release runs teardown exactly once:
// stop the active mode, then release the transport.
func (s *Session) Release() {
	if atomic.AddInt32(&s.refs, -1) > 0 {
		return
	}
	s.teardown.Do(func() {
		log.Println("[strip] tearing down session")
		s.opMu.Lock()
		if err := s.mode.deactivate(); err != nil {
			log.Printf("[strip] error stopping mode during teardown: %v\n", err)
		}
		s.opMu.Unlock()
		if err := s.conn.Close(); err != nil {
			log.Printf("[strip] error closing transport: %v\n", err)
		}
	})
}

// Write parses one or more concatenated device-file packets and applies
// them. A malformed packet aborts the rest of the write; packets applied
// before the failure stay applied.
func (s *Session) Write(buf []byte) (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	consumed := 0
	for consumed < len(buf) {
		n, err := devfile.Parse(buf[consumed:], s)
		if err != nil {
			return consumed, err
		}
		consumed += n
	}
	return consumed, nil
}

// SetLength dispatches a length update through the active mode
func (s *Session) SetLength(length uint16) error {
	return s.mode.setLength(length)
}

// SetPixelData dispatches a pixel update through the active mode
func (s *Session) SetPixelData(offset uint16, data []pixel.Pixel) error {
	return s.mode.setPixelData(offset, data)
}

// Clear dispatches a clear through the active mode
func (s *Session) Clear() error {
	return s.mode.clear()
}

// SetMode switches the active mode: the current mode is deactivated before
// the new one is activated. If either step fails, the old mode stays
// authoritative.
func (s *Session) SetMode(m devfile.SetMode) error {
	var next mode
	switch m.Mode {
	case devfile.ModeStatic:
		next = &staticMode{session: s}
	case devfile.ModeBlink:
		next = &blinkMode{session: s}
	default:
		return errors.Wrapf(devfile.ErrInvalidMode, "mode 0x%02x", m.Mode)
	}

	if err := s.mode.deactivate(); err != nil {
		return errors.Wrap(err, "strip: cannot stop current mode")
	}
	if err := next.activate(m); err != nil {
		return errors.Wrap(err, "strip: cannot start new mode")
	}
	s.mode = next
	log.Printf("[strip] mode is now %d\n", next.id())
	return nil
}

// GetData never returns data synchronously: it appends a read request to the
// session queue, and the payload is produced by a later Read.
func (s *Session) GetData(dataType byte) error {
	s.requests.push(dataType)
	return nil
}

// Mode returns the id of the active mode
func (s *Session) Mode() byte {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.mode.id()
}

// Length returns the current primary buffer length
func (s *Session) Length() uint16 {
	return s.primary.Len()
}

// pushPrimary sends the full primary buffer to the device in 21-pixel
// frames. Best effort on a per-frame basis: the first transport error
// aborts and is returned.
func (s *Session) pushPrimary() error {
	snapshot := s.primary.Snapshot()
	for start := 0; start < len(snapshot); start += wire.BlockPixels {
		end := start + wire.BlockPixels
		if end > len(snapshot) {
			end = len(snapshot)
		}
		if err := s.conn.Send(wire.EncodeLedData(snapshot[start:end])); err != nil {
			return err
		}
	}
	return nil
}

// requestQueue is the strictly FIFO queue of pending read requests
type requestQueue struct {
	mu    sync.Mutex
	types []byte
}

func (q *requestQueue) push(dataType byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.types = append(q.types, dataType)
}

func (q *requestQueue) pop() (byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.types) == 0 {
		return 0, false
	}
	head := q.types[0]
	q.types = q.types[1:]
	return head, true
}
