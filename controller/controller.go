// Package controller wires the strip session to the outside world: a
// packet-oriented unix socket stands in for the character device of the
// kernel driver, and every connected client is one open handle on the
// session.
package controller

import (
	"context"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ledcore/ws2812d/system/persist"
	"github.com/ledcore/ws2812d/system/shared"
	"github.com/ledcore/ws2812d/system/strip"
	"github.com/ledcore/ws2812d/util"

	"github.com/pkg/errors"
)

// Config contains the configurations for the controller
type Config struct {
	Session  *strip.Session
	Registry persist.ConfigRegistry

	SocketPath string
	NotifierCh chan<- util.Notification
}

// Controller accepts client connections on the socket and bridges their
// messages onto the session
type Controller struct {
	Config

	persistCh chan<- interface{}
}

// NewController validates the configuration and returns a controller
func NewController(conf Config) (*Controller, error) {
	if conf.Session == nil {
		return nil, errors.New("[controller] nil Session is invalid")
	}
	if conf.Registry == nil {
		return nil, errors.New("[controller] nil Registry is invalid")
	}
	if conf.SocketPath == "" {
		conf.SocketPath = shared.DefaultSocketPath
	}
	return &Controller{
		Config: conf,
	}, nil
}

func (c *Controller) String() string {
	return "Controller"
}

// Serve restores persisted settings, then accepts clients until the context
// is cancelled. Each accepted connection is handled on its own goroutine.
func (c *Controller) Serve(haltCtx context.Context) error {
	if err := c.Registry.Load(); err != nil {
		log.Printf("[controller] cannot load persisted settings: %+v\n", err)
	}
	if err := c.Registry.Apply(); err != nil {
		log.Printf("[controller] cannot apply persisted settings: %+v\n", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.SocketPath), 0755); err != nil {
		return errors.Wrap(err, "[controller] cannot create socket directory")
	}
	// a previous unclean shutdown leaves the socket file behind
	os.Remove(c.SocketPath)

	lis, err := net.Listen("unixpacket", c.SocketPath)
	if err != nil {
		return errors.Wrap(err, "[controller] cannot listen on socket")
	}
	if err := os.Chmod(c.SocketPath, 0666); err != nil {
		lis.Close()
		return errors.Wrap(err, "[controller] cannot open up socket permissions")
	}

	go func() {
		<-haltCtx.Done()
		log.Println("[controller] closing socket")
		lis.Close()
		os.Remove(c.SocketPath)
	}()

	// settings writes are coalesced so a burst of client updates does not
	// hammer the settings file
	persistIn, persistOut := util.Debounce(haltCtx, time.Second)
	c.persistCh = persistIn
	go func() {
		for {
			select {
			case <-haltCtx.Done():
				return
			case ev := <-persistOut:
				log.Printf("[controller] persisting settings after %d updates\n", ev.Counter)
				if err := c.Registry.Save(); err != nil {
					log.Printf("[controller] cannot persist settings: %+v\n", err)
				}
			}
		}
	}()

	log.Printf("[controller] accepting clients at %s\n", c.SocketPath)
	c.notify(util.Notification{
		Message: "LED strip daemon is ready",
	})

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-haltCtx.Done():
				return nil
			default:
				return errors.Wrap(err, "[controller] accept failed")
			}
		}
		go c.handleClient(haltCtx, conn)
	}
}

func (c *Controller) notify(n util.Notification) {
	if c.NotifierCh == nil {
		return
	}
	select {
	case c.NotifierCh <- n:
	default:
	}
}
