// Package wire implements the fixed 64-byte frame protocol spoken between
// the driver and the strip controller over USB bulk transfers.
package wire

import (
	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/util"

	"github.com/pkg/errors"
)

const (
	// FrameSize is the size of every frame in both directions
	FrameSize = 64

	// BlockPixels is the number of RGB triples fitting in one frame
	// (63 payload bytes / 3)
	BlockPixels = 21
)

// Frame opcodes, always byte 0
const (
	OpLedData        byte = 0x00 // pixel data, up to 21 triples
	OpLedCount       byte = 0x01 // strip length; replies carry max length too
	OpRequestLen     byte = 0x02 // ask the device for current/max length
	OpRequestLedData byte = 0x03 // ask the device for one 21-pixel block
	OpClear          byte = 0x99 // all LEDs off
)

var (
	ErrTruncated     = errors.New("wire: frame shorter than 64 bytes")
	ErrUnknownOpcode = errors.New("wire: unknown opcode")
)

// Frame is one unit of wire data. Encoders always produce a full frame;
// bytes past the last meaningful field stay zero.
type Frame [FrameSize]byte

// Opcode returns the frame opcode byte
func (f Frame) Opcode() byte {
	return f[0]
}

// Decode validates buf as a frame. Short input is ErrTruncated, an
// unrecognized opcode is ErrUnknownOpcode.
func Decode(buf []byte) (Frame, error) {
	var f Frame
	if len(buf) < FrameSize {
		return f, ErrTruncated
	}
	copy(f[:], buf)
	switch f[0] {
	case OpLedData, OpLedCount, OpRequestLen, OpRequestLedData, OpClear:
		return f, nil
	default:
		return f, errors.Wrapf(ErrUnknownOpcode, "opcode 0x%02x", f[0])
	}
}

// EncodeLedData packs up to BlockPixels pixels into a LedData frame
func EncodeLedData(pixels []pixel.Pixel) Frame {
	var f Frame
	f[0] = OpLedData
	for i, p := range pixels {
		if i >= BlockPixels {
			break
		}
		f[1+i*3] = p.R
		f[2+i*3] = p.G
		f[3+i*3] = p.B
	}
	return f
}

// PixelData returns count pixels from a LedData frame
func (f Frame) PixelData(count int) []pixel.Pixel {
	if count > BlockPixels {
		count = BlockPixels
	}
	out := make([]pixel.Pixel, count)
	for i := range out {
		out[i] = pixel.Pixel{
			R: f[1+i*3],
			G: f[2+i*3],
			B: f[3+i*3],
		}
	}
	return out
}

// EncodeLedCount builds the host to device length update
func EncodeLedCount(count uint16) Frame {
	var f Frame
	f[0] = OpLedCount
	f[1], f[2] = util.Uint16ToBEBytes(count)
	return f
}

// EncodeCountReply builds the device to host length reply, carrying the
// current and the maximum supported strip length
func EncodeCountReply(count, max uint16) Frame {
	f := EncodeLedCount(count)
	f[3], f[4] = util.Uint16ToBEBytes(max)
	return f
}

// Count returns the length carried by a LedCount frame
func (f Frame) Count() uint16 {
	return util.BEBytesToUint16(f[1], f[2])
}

// MaxCount returns the maximum length carried by a LedCount reply
func (f Frame) MaxCount() uint16 {
	return util.BEBytesToUint16(f[3], f[4])
}

// EncodeRequestLen builds a length query
func EncodeRequestLen() Frame {
	var f Frame
	f[0] = OpRequestLen
	return f
}

// EncodeRequestLedData builds a query for one block of pixel data
func EncodeRequestLedData(blockIndex uint16) Frame {
	var f Frame
	f[0] = OpRequestLedData
	f[1], f[2] = util.Uint16ToBEBytes(blockIndex)
	return f
}

// BlockIndex returns the block index carried by a RequestLedData frame
func (f Frame) BlockIndex() uint16 {
	return util.BEBytesToUint16(f[1], f[2])
}

// EncodeClear builds a clear command
func EncodeClear() Frame {
	var f Frame
	f[0] = OpClear
	return f
}
