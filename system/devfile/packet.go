// Package devfile implements the variable-length packet protocol written to
// and read from the driver by applications. It is distinct from the fixed
// 64-byte USB frames in system/wire: one application write may concatenate
// several of these packets.
package devfile

import (
	"encoding/binary"

	"github.com/ledcore/ws2812d/system/pixel"

	"github.com/pkg/errors"
)

// Packet ctrl bytes, always byte 0
const (
	CtrlLen byte = iota
	CtrlPixelData
	CtrlSetMode
	CtrlClear
	CtrlGetData
)

// Strip operation modes
const (
	ModeStatic byte = iota
	ModeBlink
)

// Data types for CtrlGetData requests
const (
	DataLen byte = iota
	DataMode
	DataPixel
	DataModePixel
)

// Fixed packet sizes. PixelHeaderSize is followed by count*3 payload bytes.
const (
	LenPacketSize     = 3
	PixelHeaderSize   = 5
	SetModeStaticSize = 2
	SetModeBlinkSize  = 6
	ClearPacketSize   = 1
	GetDataPacketSize = 3
)

var (
	ErrTruncated   = errors.New("devfile: buffer shorter than declared packet")
	ErrUnknownCtrl = errors.New("devfile: unknown ctrl byte")
	ErrInvalidMode = errors.New("devfile: unknown mode")
)

// SetMode carries the parameters of a mode change. The pattern fields are
// only meaningful for ModeBlink.
type SetMode struct {
	Mode         byte
	PatternCount uint8
	PatternLen   uint8
	BlinkPeriod  uint16 // milliseconds between patterns, 0 means no wait
}

// EncodeLen builds a length packet
func EncodeLen(length uint16) []byte {
	buf := make([]byte, LenPacketSize)
	buf[0] = CtrlLen
	binary.LittleEndian.PutUint16(buf[1:3], length)
	return buf
}

// EncodePixelHeader builds just the header of a pixel data packet; count*3
// payload bytes are expected to follow
func EncodePixelHeader(count, offset uint16) []byte {
	buf := make([]byte, PixelHeaderSize)
	buf[0] = CtrlPixelData
	binary.LittleEndian.PutUint16(buf[1:3], count)
	binary.LittleEndian.PutUint16(buf[3:5], offset)
	return buf
}

// EncodePixelData builds a pixel data packet updating len(data) pixels
// starting at offset
func EncodePixelData(offset uint16, data []pixel.Pixel) []byte {
	buf := make([]byte, PixelHeaderSize+len(data)*3)
	copy(buf, EncodePixelHeader(uint16(len(data)), offset))
	for i, p := range data {
		buf[PixelHeaderSize+i*3] = p.R
		buf[PixelHeaderSize+i*3+1] = p.G
		buf[PixelHeaderSize+i*3+2] = p.B
	}
	return buf
}

// EncodeSetMode builds a mode change packet
func EncodeSetMode(m SetMode) []byte {
	switch m.Mode {
	case ModeStatic:
		return []byte{CtrlSetMode, ModeStatic}
	case ModeBlink:
		buf := make([]byte, SetModeBlinkSize)
		buf[0] = CtrlSetMode
		buf[1] = ModeBlink
		buf[2] = m.PatternCount
		buf[3] = m.PatternLen
		binary.LittleEndian.PutUint16(buf[4:6], m.BlinkPeriod)
		return buf
	default:
		return nil
	}
}

// EncodeClear builds a clear packet
func EncodeClear() []byte {
	return []byte{CtrlClear}
}

// EncodeGetData builds a data request packet. The third byte is reserved.
func EncodeGetData(dataType byte) []byte {
	return []byte{CtrlGetData, dataType, 0x00}
}
