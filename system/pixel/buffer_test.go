package pixel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResizePreservesContent(t *testing.T) {
	b := NewBuffer(3)
	require.NoError(t, b.Set(0, []Pixel{{R: 1}, {R: 2}, {R: 3}}))

	b.Resize(5)
	require.EqualValues(t, 5, b.Len())
	require.Equal(t, Pixel{R: 2}, b.At(1))
	// new tail is zero-filled
	require.Equal(t, Pixel{}, b.At(3))
	require.Equal(t, Pixel{}, b.At(4))

	b.Resize(2)
	require.EqualValues(t, 2, b.Len())
	require.Equal(t, Pixel{R: 1}, b.At(0))
	require.Equal(t, Pixel{R: 2}, b.At(1))
}

func TestResizeZeroLength(t *testing.T) {
	b := NewBuffer(0)
	require.EqualValues(t, 0, b.Len())

	b.Resize(10)
	require.EqualValues(t, 10, b.Len())
	b.Resize(0)
	require.EqualValues(t, 0, b.Len())
}

func TestSetRejectsOverflow(t *testing.T) {
	b := NewBuffer(4)
	require.NoError(t, b.Set(0, []Pixel{{R: 9}, {R: 9}, {R: 9}, {R: 9}}))

	err := b.Set(2, []Pixel{{G: 1}, {G: 2}, {G: 3}})
	require.ErrorIs(t, err, ErrMessageTooLarge)

	// the failed write must not have mutated anything
	for i := uint16(0); i < 4; i++ {
		require.Equal(t, Pixel{R: 9}, b.At(i))
	}
}

func TestConcurrentSetDistinctOffsets(t *testing.T) {
	b := NewBuffer(200)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			require.NoError(t, b.Set(0, []Pixel{{R: 1}, {R: 2}}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			require.NoError(t, b.Set(100, []Pixel{{B: 3}, {B: 4}}))
		}
	}()
	wg.Wait()

	require.Equal(t, Pixel{R: 1}, b.At(0))
	require.Equal(t, Pixel{R: 2}, b.At(1))
	require.Equal(t, Pixel{B: 3}, b.At(100))
	require.Equal(t, Pixel{B: 4}, b.At(101))
}

func TestTileRepeatsPattern(t *testing.T) {
	a, bb, c, d := Pixel{R: 1}, Pixel{R: 2}, Pixel{R: 3}, Pixel{R: 4}

	pattern := NewBuffer(4)
	require.NoError(t, pattern.Set(0, []Pixel{a, bb, c, d}))

	dst := NewBuffer(5)
	Tile(dst, pattern, 0, 2)
	require.Equal(t, []Pixel{a, bb, a, bb, a}, dst.Snapshot())

	Tile(dst, pattern, 2, 4)
	require.Equal(t, []Pixel{c, d, c, d, c}, dst.Snapshot())
}

func TestTileIgnoresBadSlice(t *testing.T) {
	pattern := NewBuffer(2)
	dst := NewBuffer(3)
	require.NoError(t, dst.Set(0, []Pixel{{G: 7}, {G: 7}, {G: 7}}))

	Tile(dst, pattern, 2, 4)
	require.Equal(t, Pixel{G: 7}, dst.At(0))
}
