package controller

import (
	"context"
	"encoding/binary"
	"log"
	"net"

	"github.com/ledcore/ws2812d/system/shared"

	"github.com/pkg/errors"
)

// handleClient services one connected client until it hangs up or the
// daemon shuts down. The connection counts as an open handle: the session
// stays alive at least as long as the client does.
func (c *Controller) handleClient(haltCtx context.Context, conn net.Conn) {
	log.Printf("[controller] client connected: %s\n", conn.RemoteAddr())

	c.Session.Retain()
	defer c.Session.Release()
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-haltCtx.Done():
			conn.Close()
		case <-done:
		}
	}()

	buf := make([]byte, shared.MaxMessageSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.Printf("[controller] client gone: %v\n", err)
			return
		}
		if n == 0 {
			continue
		}

		var reply []byte
		switch buf[0] {
		case shared.VerbWrite:
			reply = c.doWrite(buf[1:n])
		case shared.VerbRead:
			reply = c.doRead()
		default:
			reply = errorReply(errors.Errorf("unknown verb 0x%02x", buf[0]))
		}

		if _, err := conn.Write(reply); err != nil {
			log.Printf("[controller] cannot reply to client: %v\n", err)
			return
		}
	}
}

// doWrite applies the packets and reports how many bytes were consumed,
// mirroring a partial write on the character device
func (c *Controller) doWrite(packets []byte) []byte {
	consumed, err := c.Session.Write(packets)
	if err != nil {
		return errorReply(err)
	}
	c.schedulePersist()
	reply := make([]byte, 3)
	reply[0] = shared.StatusOK
	binary.LittleEndian.PutUint16(reply[1:3], uint16(consumed))
	return reply
}

// doRead pops at most one queued read request and returns its payload. An
// empty queue yields an empty payload, not an error.
func (c *Controller) doRead() []byte {
	reply := make([]byte, shared.MaxMessageSize)
	reply[0] = shared.StatusOK
	n, err := c.Session.Read(reply[1:])
	if err != nil {
		return errorReply(err)
	}
	return reply[:1+n]
}

// schedulePersist queues a debounced settings save after a state change
func (c *Controller) schedulePersist() {
	if c.persistCh == nil {
		return
	}
	select {
	case c.persistCh <- struct{}{}:
	default:
	}
}

func errorReply(err error) []byte {
	return append([]byte{shared.StatusError}, err.Error()...)
}
