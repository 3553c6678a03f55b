// Package background holds the long-running side services supervised next
// to the controller.
package background

import (
	"context"
	"log"

	"github.com/ledcore/ws2812d/util"
)

// Notifier drains user-facing notifications and hands them to the desktop
// notification service. Delivery is best effort; a headless host just logs.
type Notifier struct {
	C chan util.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{
		C: make(chan util.Notification, 10),
	}
}

func (n *Notifier) String() string {
	return "Notifier"
}

func (n *Notifier) Serve(haltCtx context.Context) error {
	log.Println("[notifier] starting notify loop")
	for {
		select {
		case msg := <-n.C:
			log.Printf("[notifier] %s\n", msg.Message)
			if err := util.SendDesktopNotification(msg); err != nil {
				log.Printf("[notifier] cannot send desktop notification: %+v\n", err)
			}
		case <-haltCtx.Done():
			log.Println("[notifier] exiting notify loop")
			return nil
		}
	}
}
