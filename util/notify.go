package util

import (
	"os/exec"
	"strconv"
	"time"

	"github.com/ledcore/ws2812d/system/shared"

	"github.com/pkg/errors"
)

const defaultNotificationDelay = time.Millisecond * 2500

// SendDesktopNotification shows the notification via the desktop
// notification service, if one is around
func SendDesktopNotification(n Notification) error {
	delay := n.Delay
	if delay == 0 {
		delay = defaultNotificationDelay
	}

	path, err := exec.LookPath("notify-send")
	if err != nil {
		return errors.Wrap(err, "util: no notification service available")
	}

	cmd := exec.Command(path,
		"--app-name", shared.AppName,
		"--expire-time", strconv.FormatInt(delay.Milliseconds(), 10),
		shared.AppName,
		n.Message,
	)
	return cmd.Start()
}
