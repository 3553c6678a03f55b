package transport

import (
	"testing"

	"github.com/ledcore/ws2812d/firmware"
	"github.com/ledcore/ws2812d/system/wire"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	conn := NewConn(firmware.New(firmware.Discard{}))
	defer conn.Close()

	require.NoError(t, conn.Send(wire.EncodeLedCount(10)))

	reply, err := conn.RoundTrip(wire.EncodeRequestLen())
	require.NoError(t, err)
	require.EqualValues(t, 10, reply.Count())
	require.EqualValues(t, firmware.MaxPixels, reply.MaxCount())
}

func TestDisconnectedFailsFast(t *testing.T) {
	conn := NewConn(firmware.New(firmware.Discard{}))
	defer conn.Close()

	require.True(t, conn.Connected())
	conn.MarkDisconnected()
	require.False(t, conn.Connected())

	require.ErrorIs(t, conn.Send(wire.EncodeClear()), ErrNotConnected)
	_, err := conn.RoundTrip(wire.EncodeRequestLen())
	require.ErrorIs(t, err, ErrNotConnected)
}

type stuckEndpoint struct {
	block chan struct{}
}

func (s *stuckEndpoint) Write(buf []byte) (int, error) { return len(buf), nil }
func (s *stuckEndpoint) Read(buf []byte) (int, error) {
	<-s.block
	return 0, nil
}
func (s *stuckEndpoint) Close() error {
	close(s.block)
	return nil
}

func TestRoundTripTimesOut(t *testing.T) {
	conn := NewConn(&stuckEndpoint{block: make(chan struct{})})
	defer conn.Close()

	_, err := conn.RoundTrip(wire.EncodeRequestLen())
	require.ErrorIs(t, err, ErrTimeout)
}
