package strip

import (
	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/system/wire"
)

// mode is the fixed set of operations every mode answers. The two
// implementations (static, blink) are the whole closed set; dispatch happens
// through whichever one the session currently holds.
type mode interface {
	id() byte
	setLength(length uint16) error
	setPixelData(offset uint16, data []pixel.Pixel) error
	clear() error
	activate(m devfile.SetMode) error
	deactivate() error
	settings() devfile.SetMode
	dataBuffer() *pixel.Buffer
}

// staticMode holds no state of its own: the primary buffer directly
// represents the strip.
type staticMode struct {
	session *Session
}

func (m *staticMode) id() byte {
	return devfile.ModeStatic
}

// setLength resizes the primary buffer, pushes the new length to the
// device, and re-pushes the full pixel buffer. The device clears its strip
// on a length change, so the re-push keeps host and device in sync.
func (m *staticMode) setLength(length uint16) error {
	m.session.primary.Resize(length)
	if err := m.session.conn.Send(wire.EncodeLedCount(length)); err != nil {
		return err
	}
	return m.session.pushPrimary()
}

func (m *staticMode) setPixelData(offset uint16, data []pixel.Pixel) error {
	if err := m.session.primary.Set(offset, data); err != nil {
		return err
	}
	return m.session.pushPrimary()
}

func (m *staticMode) clear() error {
	return m.session.conn.Send(wire.EncodeClear())
}

// activate always succeeds; activating static twice is the same as once
func (m *staticMode) activate(devfile.SetMode) error {
	return nil
}

// deactivate is a no-op, static mode holds no resources
func (m *staticMode) deactivate() error {
	return nil
}

func (m *staticMode) settings() devfile.SetMode {
	return devfile.SetMode{Mode: devfile.ModeStatic}
}

func (m *staticMode) dataBuffer() *pixel.Buffer {
	return m.session.primary
}
