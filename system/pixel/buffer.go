package pixel

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrMessageTooLarge is returned when a pixel write does not fit in the
// destination buffer. The buffer is left untouched.
var ErrMessageTooLarge = errors.New("pixel: data does not fit in buffer")

// Pixel is one RGB triple. No alpha, no gamma correction.
type Pixel struct {
	R uint8
	G uint8
	B uint8
}

// Buffer holds an ordered sequence of pixels guarded by its own mutex. All
// content mutation happens under that mutex; callers never assume the lock
// is already held.
type Buffer struct {
	mu     sync.Mutex
	pixels []Pixel
}

// NewBuffer returns a buffer of the given length, zero-filled (all black).
// Length zero is valid and yields an allocated but empty buffer.
func NewBuffer(length uint16) *Buffer {
	return &Buffer{
		pixels: make([]Pixel, length),
	}
}

// Len returns the current number of pixels
func (b *Buffer) Len() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint16(len(b.pixels))
}

// Resize changes the buffer length in place. Growing preserves existing
// content and zero-fills the new tail, shrinking keeps the prefix. Resizing
// to the current length is a no-op.
func (b *Buffer) Resize(newLen uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := len(b.pixels)
	if old == int(newLen) {
		return
	}
	resized := make([]Pixel, newLen)
	copy(resized, b.pixels)
	b.pixels = resized
}

// Set copies data into the buffer starting at offset. The write is rejected
// with ErrMessageTooLarge, and nothing is mutated, if offset+len(data)
// exceeds the buffer length.
func (b *Buffer) Set(offset uint16, data []Pixel) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if int(offset)+len(data) > len(b.pixels) {
		return ErrMessageTooLarge
	}
	copy(b.pixels[offset:], data)
	return nil
}

// At returns the pixel at index i, or a zero pixel when out of range
func (b *Buffer) At(i uint16) Pixel {
	b.mu.Lock()
	defer b.mu.Unlock()

	if int(i) >= len(b.pixels) {
		return Pixel{}
	}
	return b.pixels[i]
}

// Snapshot returns a copy of the buffer content
func (b *Buffer) Snapshot() []Pixel {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Pixel, len(b.pixels))
	copy(out, b.pixels)
	return out
}

// Tile repeats pattern[start:end] across the full length of dst, truncating
// the last repetition if needed. This is the only code path holding two
// buffer locks at once; the acquisition order is always destination first,
// then pattern. Do not introduce a second path with a different order.
func Tile(dst, pattern *Buffer, start, end int) {
	dst.mu.Lock()
	pattern.mu.Lock()

	if start < 0 || end > len(pattern.pixels) || start >= end {
		pattern.mu.Unlock()
		dst.mu.Unlock()
		return
	}
	for i := range dst.pixels {
		dst.pixels[i] = pattern.pixels[start+i%(end-start)]
	}

	pattern.mu.Unlock()
	dst.mu.Unlock()
}
