package strip

import (
	"log"

	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/wire"

	"github.com/pkg/errors"
)

var (
	// ErrShortBuffer is returned when the caller's read buffer cannot hold
	// the reply for the pending request
	ErrShortBuffer = errors.New("strip: read buffer too small")
	// ErrInvalidRequest is returned when a queued request carries an
	// unknown data type
	ErrInvalidRequest = errors.New("strip: unknown data request type")
)

// Read consumes at most one pending read request, regardless of how much
// buffer space the caller provides, and writes the reply into buf. With no
// request pending it returns 0 bytes immediately; that is not an error.
// A consumed request is gone even when producing its reply fails.
func (s *Session) Read(buf []byte) (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	dataType, ok := s.requests.pop()
	if !ok {
		log.Println("[strip] read with empty request queue")
		return 0, nil
	}

	switch dataType {
	case devfile.DataLen:
		return s.readLength(buf)
	case devfile.DataMode:
		return s.readModeSettings(buf)
	case devfile.DataPixel:
		return s.readPixelData(buf)
	case devfile.DataModePixel:
		return s.readModePixelData(buf)
	default:
		return 0, errors.Wrapf(ErrInvalidRequest, "type 0x%02x", dataType)
	}
}

// readLength queries the device for its current length and replies with a
// length packet
func (s *Session) readLength(buf []byte) (int, error) {
	if len(buf) < devfile.LenPacketSize {
		return 0, ErrShortBuffer
	}

	reply, err := s.conn.RoundTrip(wire.EncodeRequestLen())
	if err != nil {
		return 0, err
	}
	return copy(buf, devfile.EncodeLen(reply.Count())), nil
}

// readModeSettings replies with the mode packet describing the active mode
func (s *Session) readModeSettings(buf []byte) (int, error) {
	payload := devfile.EncodeSetMode(s.mode.settings())
	if len(buf) < len(payload) {
		return 0, ErrShortBuffer
	}
	return copy(buf, payload), nil
}

// readPixelData fetches the strip content back from the device. The device
// length is authoritative: if it differs from the primary buffer, the
// buffer is resized to match first. Pixels come back in 21-pixel blocks,
// one round-trip each.
func (s *Session) readPixelData(buf []byte) (int, error) {
	reply, err := s.conn.RoundTrip(wire.EncodeRequestLen())
	if err != nil {
		return 0, err
	}
	length := reply.Count()
	if s.primary.Len() != length {
		log.Printf("[strip] device reports length %d, resizing to match\n", length)
		s.primary.Resize(length)
	}

	total := devfile.PixelHeaderSize + int(length)*3
	if len(buf) < total {
		return 0, ErrShortBuffer
	}

	copy(buf, devfile.EncodePixelHeader(length, 0))

	copied := devfile.PixelHeaderSize
	blocks := (int(length) + wire.BlockPixels - 1) / wire.BlockPixels
	for block := 0; block < blocks; block++ {
		frame, err := s.conn.RoundTrip(wire.EncodeRequestLedData(uint16(block)))
		if err != nil {
			return 0, err
		}
		remaining := int(length) - block*wire.BlockPixels
		if remaining > wire.BlockPixels {
			remaining = wire.BlockPixels
		}
		for _, p := range frame.PixelData(remaining) {
			buf[copied] = p.R
			buf[copied+1] = p.G
			buf[copied+2] = p.B
			copied += 3
		}
	}
	return total, nil
}

// readModePixelData replies with the mode's own buffer (primary for static,
// pattern for blink) straight from host memory, no device round-trip.
func (s *Session) readModePixelData(buf []byte) (int, error) {
	pixels := s.mode.dataBuffer().Snapshot()
	payload := devfile.EncodePixelData(0, pixels)
	if len(buf) < len(payload) {
		return 0, ErrShortBuffer
	}
	return copy(buf, payload), nil
}
