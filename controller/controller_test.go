package controller

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/system/shared"

	"github.com/stretchr/testify/require"
)

func startTestController(t *testing.T) (net.Conn, context.CancelFunc) {
	t.Helper()

	dir, err := os.MkdirTemp("", "ws2812d-controller")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	dep, err := GetDependencies(RunConfig{
		DryRun:       true,
		SocketPath:   filepath.Join(dir, "test.sock"),
		SettingsPath: filepath.Join(dir, "settings.gob"),
	})
	require.NoError(t, err)

	control, err := NewController(Config{
		Session:    dep.Session,
		Registry:   dep.ConfigRegistry,
		SocketPath: filepath.Join(dir, "test.sock"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- control.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-serveErr:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("controller did not shut down")
		}
		dep.Session.Release()
	})

	var conn net.Conn
	require.Eventually(t, func() bool {
		conn, err = net.Dial("unixpacket", control.SocketPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	t.Cleanup(func() { conn.Close() })

	return conn, cancel
}

func roundTrip(t *testing.T, conn net.Conn, msg []byte) []byte {
	t.Helper()
	_, err := conn.Write(msg)
	require.NoError(t, err)

	buf := make([]byte, shared.MaxMessageSize)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.NotZero(t, n)
	return buf[:n]
}

func TestWriteThenRead(t *testing.T) {
	conn, _ := startTestController(t)

	msg := append([]byte{shared.VerbWrite}, devfile.EncodeLen(8)...)
	msg = append(msg, devfile.EncodeGetData(devfile.DataLen)...)
	reply := roundTrip(t, conn, msg)
	require.Equal(t, shared.StatusOK, reply[0])

	reply = roundTrip(t, conn, []byte{shared.VerbRead})
	require.Equal(t, shared.StatusOK, reply[0])
	require.Equal(t, devfile.EncodeLen(8), reply[1:])
}

func TestReadEmptyQueue(t *testing.T) {
	conn, _ := startTestController(t)

	reply := roundTrip(t, conn, []byte{shared.VerbRead})
	require.Equal(t, []byte{shared.StatusOK}, reply)
}

func TestMalformedWriteReportsConsumed(t *testing.T) {
	conn, _ := startTestController(t)

	msg := append([]byte{shared.VerbWrite}, devfile.EncodeLen(4)...)
	msg = append(msg, 0x7f) // junk ctrl byte
	reply := roundTrip(t, conn, msg)
	require.Equal(t, shared.StatusError, reply[0])
	require.Contains(t, string(reply[1:]), "unknown ctrl")

	// the device-facing state before the junk still applied
	reply = roundTrip(t, conn, append([]byte{shared.VerbWrite}, devfile.EncodeGetData(devfile.DataLen)...))
	require.Equal(t, shared.StatusOK, reply[0])
	reply = roundTrip(t, conn, []byte{shared.VerbRead})
	require.Equal(t, devfile.EncodeLen(4), reply[1:])
}

func TestLargePatternReadback(t *testing.T) {
	conn, _ := startTestController(t)

	// 100 patterns of 30 pixels: the reply is far past any small fixed
	// buffer size
	pattern := make([]pixel.Pixel, 100*30)
	for i := range pattern {
		pattern[i] = pixel.Pixel{R: uint8(i), G: uint8(i >> 8)}
	}

	msg := append([]byte{shared.VerbWrite}, devfile.EncodeLen(30)...)
	msg = append(msg, devfile.EncodeSetMode(devfile.SetMode{
		Mode:         devfile.ModeBlink,
		PatternCount: 100,
		PatternLen:   30,
		BlinkPeriod:  60000,
	})...)
	msg = append(msg, devfile.EncodePixelData(0, pattern)...)
	msg = append(msg, devfile.EncodeGetData(devfile.DataModePixel)...)
	reply := roundTrip(t, conn, msg)
	require.Equal(t, shared.StatusOK, reply[0])

	reply = roundTrip(t, conn, []byte{shared.VerbRead})
	require.Equal(t, shared.StatusOK, reply[0])
	require.Equal(t, devfile.EncodePixelData(0, pattern), reply[1:])
}

func TestUnknownVerb(t *testing.T) {
	conn, _ := startTestController(t)

	reply := roundTrip(t, conn, []byte{0xff})
	require.Equal(t, shared.StatusError, reply[0])
}
