package util

import (
	"time"
)

// Notification carries a user-facing message emitted by background services
type Notification struct {
	Message   string
	Immediate bool
	Delay     time.Duration
}
