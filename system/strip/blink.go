package strip

import (
	"log"
	"time"

	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/system/wire"

	"github.com/pkg/errors"
)

// stopTimeout bounds how long deactivation waits for the refresh task to
// acknowledge the stop signal
const stopTimeout = time.Second * 3

// blinkMode cycles the strip through pattern_count patterns of pattern_len
// pixels each, on a fixed period. The patterns live in their own buffer; the
// refresh task composites them into the primary buffer and pushes that.
type blinkMode struct {
	session      *Session
	patternCount uint8
	patternLen   uint8
	period       uint16
	pattern      *pixel.Buffer
	current      int

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
}

func (m *blinkMode) id() byte {
	return devfile.ModeBlink
}

// setLength resizes the primary buffer (the composited output) and pushes
// the new length to the device. The pattern buffer is not touched, and no
// pixel re-push happens here: the refresh task pushes on its own cadence.
func (m *blinkMode) setLength(length uint16) error {
	m.session.primary.Resize(length)
	return m.session.conn.Send(wire.EncodeLedCount(length))
}

// setPixelData writes into the pattern buffer. Nothing is pushed to the
// device; the refresh task picks the change up on its next tick.
func (m *blinkMode) setPixelData(offset uint16, data []pixel.Pixel) error {
	return m.pattern.Set(offset, data)
}

// clear demotes the session back to static mode before sending the clear
// frame. This is deliberate: a cleared strip left in blink mode would
// repaint itself on the next tick.
func (m *blinkMode) clear() error {
	if err := m.deactivate(); err != nil {
		return err
	}
	static := &staticMode{session: m.session}
	if err := static.activate(devfile.SetMode{Mode: devfile.ModeStatic}); err != nil {
		return err
	}
	m.session.mode = static
	return m.session.conn.Send(wire.EncodeClear())
}

func (m *blinkMode) activate(p devfile.SetMode) error {
	if p.PatternCount == 0 || p.PatternLen == 0 {
		return errors.Wrap(devfile.ErrInvalidMode, "blink pattern dimensions must be at least 1")
	}

	m.patternCount = p.PatternCount
	m.patternLen = p.PatternLen
	m.period = p.BlinkPeriod
	m.pattern = pixel.NewBuffer(uint16(p.PatternCount) * uint16(p.PatternLen))
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	if err := m.session.startTask(m); err != nil {
		// the pattern buffer allocated above is intentionally left as is,
		// matching the established driver behavior on this path
		return errors.Wrap(ErrTaskCreation, err.Error())
	}
	log.Printf("[strip] blink mode active {period %dms, pattern_len %d, pattern_count %d}\n",
		m.period, m.patternLen, m.patternCount)
	return nil
}

// deactivate signals the refresh task, waits for it to terminate, and
// releases the pattern buffer. Safe to call again after a timeout: the
// retry re-waits on the task instead of re-closing the stop channel.
func (m *blinkMode) deactivate() error {
	if !m.stopped {
		close(m.stopCh)
		m.stopped = true
	}
	select {
	case <-m.doneCh:
	case <-time.After(stopTimeout):
		return ErrTaskStop
	}
	m.pattern = nil
	return nil
}

func (m *blinkMode) settings() devfile.SetMode {
	return devfile.SetMode{
		Mode:         devfile.ModeBlink,
		PatternCount: m.patternCount,
		PatternLen:   m.patternLen,
		BlinkPeriod:  m.period,
	}
}

func (m *blinkMode) dataBuffer() *pixel.Buffer {
	return m.pattern
}

func startBlinkTask(m *blinkMode) error {
	go m.run()
	return nil
}

// run is the periodic refresh task. It terminates only on the stop signal,
// observed at the loop boundary; push failures are logged and the loop
// continues, since LED refresh is best effort and must not silently stop.
func (m *blinkMode) run() {
	defer close(m.doneCh)

	period := time.Duration(m.period) * time.Millisecond
	for {
		select {
		case <-m.stopCh:
			return
		default:
		}

		if period > 0 {
			select {
			case <-m.stopCh:
				return
			case <-time.After(period):
			}
		}

		m.tick()
	}
}

// tick composites one pattern onto the strip: tile the current pattern
// slice across the primary buffer under the fixed double lock (destination
// before pattern), push, then advance to the next pattern.
func (m *blinkMode) tick() {
	start := m.current * int(m.patternLen)
	end := start + int(m.patternLen)
	pixel.Tile(m.session.primary, m.pattern, start, end)

	if err := m.session.pushPrimary(); err != nil {
		log.Printf("[strip] blink push failed, continuing: %v\n", err)
	}

	m.current = (m.current + 1) % int(m.patternCount)
}
