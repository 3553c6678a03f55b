package devfile

import (
	"encoding/binary"

	"github.com/ledcore/ws2812d/system/pixel"

	"github.com/pkg/errors"
)

// Handler receives the decoded packets. The driver session implements this;
// which buffer a SetPixelData lands in depends on the active mode.
type Handler interface {
	SetLength(length uint16) error
	SetPixelData(offset uint16, data []pixel.Pixel) error
	Clear() error
	SetMode(m SetMode) error
	GetData(dataType byte) error
}

// Parse consumes exactly one packet from the front of buf, dispatches it to
// h, and returns the number of bytes consumed. The caller loops until the
// input is exhausted. A parse failure aborts the remainder of the write;
// packets already dispatched stay applied, there is no rollback.
func Parse(buf []byte, h Handler) (int, error) {
	if len(buf) == 0 {
		return 0, ErrTruncated
	}

	switch buf[0] {
	case CtrlLen:
		if len(buf) < LenPacketSize {
			return 0, errors.Wrap(ErrTruncated, "length packet")
		}
		length := binary.LittleEndian.Uint16(buf[1:3])
		if err := h.SetLength(length); err != nil {
			return 0, err
		}
		return LenPacketSize, nil

	case CtrlPixelData:
		if len(buf) < PixelHeaderSize {
			return 0, errors.Wrap(ErrTruncated, "pixel data header")
		}
		count := binary.LittleEndian.Uint16(buf[1:3])
		offset := binary.LittleEndian.Uint16(buf[3:5])
		payload := int(count) * 3
		if len(buf) < PixelHeaderSize+payload {
			return 0, errors.Wrapf(ErrTruncated, "pixel data payload, expected %d bytes, got %d",
				payload, len(buf)-PixelHeaderSize)
		}
		data := make([]pixel.Pixel, count)
		for i := range data {
			data[i] = pixel.Pixel{
				R: buf[PixelHeaderSize+i*3],
				G: buf[PixelHeaderSize+i*3+1],
				B: buf[PixelHeaderSize+i*3+2],
			}
		}
		if err := h.SetPixelData(offset, data); err != nil {
			return 0, err
		}
		return PixelHeaderSize + payload, nil

	case CtrlSetMode:
		if len(buf) < SetModeStaticSize {
			return 0, errors.Wrap(ErrTruncated, "mode packet")
		}
		var m SetMode
		var size int
		switch buf[1] {
		case ModeStatic:
			size = SetModeStaticSize
			m.Mode = ModeStatic
		case ModeBlink:
			size = SetModeBlinkSize
			if len(buf) < size {
				return 0, errors.Wrap(ErrTruncated, "blink mode packet")
			}
			m.Mode = ModeBlink
			m.PatternCount = buf[2]
			m.PatternLen = buf[3]
			m.BlinkPeriod = binary.LittleEndian.Uint16(buf[4:6])
		default:
			return 0, errors.Wrapf(ErrInvalidMode, "mode 0x%02x", buf[1])
		}
		if err := h.SetMode(m); err != nil {
			return 0, err
		}
		return size, nil

	case CtrlClear:
		if err := h.Clear(); err != nil {
			return 0, err
		}
		return ClearPacketSize, nil

	case CtrlGetData:
		if len(buf) < GetDataPacketSize {
			return 0, errors.Wrap(ErrTruncated, "data request packet")
		}
		if err := h.GetData(buf[1]); err != nil {
			return 0, err
		}
		return GetDataPacketSize, nil

	default:
		return 0, errors.Wrapf(ErrUnknownCtrl, "ctrl 0x%02x", buf[0])
	}
}
