package devfile

import (
	"testing"

	"github.com/ledcore/ws2812d/system/pixel"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	ops []string

	lengths   []uint16
	offsets   []uint16
	pixels    [][]pixel.Pixel
	modes     []SetMode
	dataTypes []byte
}

func (r *recorder) SetLength(length uint16) error {
	r.ops = append(r.ops, "len")
	r.lengths = append(r.lengths, length)
	return nil
}

func (r *recorder) SetPixelData(offset uint16, data []pixel.Pixel) error {
	r.ops = append(r.ops, "pixel")
	r.offsets = append(r.offsets, offset)
	r.pixels = append(r.pixels, data)
	return nil
}

func (r *recorder) Clear() error {
	r.ops = append(r.ops, "clear")
	return nil
}

func (r *recorder) SetMode(m SetMode) error {
	r.ops = append(r.ops, "mode")
	r.modes = append(r.modes, m)
	return nil
}

func (r *recorder) GetData(dataType byte) error {
	r.ops = append(r.ops, "get")
	r.dataTypes = append(r.dataTypes, dataType)
	return nil
}

func parseAll(t *testing.T, buf []byte, h Handler) {
	t.Helper()
	for len(buf) > 0 {
		n, err := Parse(buf, h)
		require.NoError(t, err)
		buf = buf[n:]
	}
}

func TestParseSingle(t *testing.T) {
	r := &recorder{}

	n, err := Parse(EncodeLen(300), r)
	require.NoError(t, err)
	require.Equal(t, LenPacketSize, n)
	require.Equal(t, []uint16{300}, r.lengths)
}

func TestParseConcatenated(t *testing.T) {
	r := &recorder{}

	var buf []byte
	buf = append(buf, EncodeLen(5)...)
	buf = append(buf, EncodePixelData(2, []pixel.Pixel{{R: 1}, {G: 2}, {B: 3}})...)
	buf = append(buf, EncodeGetData(DataPixel)...)
	buf = append(buf, EncodeClear()...)
	parseAll(t, buf, r)

	require.Equal(t, []string{"len", "pixel", "get", "clear"}, r.ops)
	require.Equal(t, []uint16{2}, r.offsets)
	require.Equal(t, []pixel.Pixel{{R: 1}, {G: 2}, {B: 3}}, r.pixels[0])
	require.Equal(t, []byte{DataPixel}, r.dataTypes)
}

func TestParseSetModeBlink(t *testing.T) {
	r := &recorder{}

	buf := EncodeSetMode(SetMode{
		Mode:         ModeBlink,
		PatternCount: 4,
		PatternLen:   2,
		BlinkPeriod:  500,
	})
	n, err := Parse(buf, r)
	require.NoError(t, err)
	require.Equal(t, SetModeBlinkSize, n)
	require.Equal(t, SetMode{Mode: ModeBlink, PatternCount: 4, PatternLen: 2, BlinkPeriod: 500}, r.modes[0])
}

func TestParseTruncatedPayload(t *testing.T) {
	r := &recorder{}

	// header declares 3 pixels but only 2 follow
	buf := EncodePixelData(0, []pixel.Pixel{{R: 1}, {R: 2}, {R: 3}})
	_, err := Parse(buf[:len(buf)-3], r)
	require.ErrorIs(t, err, ErrTruncated)
	require.Empty(t, r.ops)
}

func TestParseUnknownCtrl(t *testing.T) {
	r := &recorder{}

	_, err := Parse([]byte{0x7f, 0x00}, r)
	require.ErrorIs(t, err, ErrUnknownCtrl)
}

func TestParseUnknownMode(t *testing.T) {
	r := &recorder{}

	_, err := Parse([]byte{CtrlSetMode, 0x09}, r)
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestParseAbortKeepsAppliedPackets(t *testing.T) {
	r := &recorder{}

	var buf []byte
	buf = append(buf, EncodeLen(10)...)
	buf = append(buf, 0x7f) // unknown ctrl after a valid packet

	n, err := Parse(buf, r)
	require.NoError(t, err)
	_, err = Parse(buf[n:], r)
	require.ErrorIs(t, err, ErrUnknownCtrl)

	// the length packet stays applied, there is no rollback
	require.Equal(t, []uint16{10}, r.lengths)
}
