// Package shared holds the constants both the daemon and the client binary
// need: the socket location and the message framing on it.
package shared

const (
	AppName = "ws2812d"

	// DefaultSocketPath is where the daemon listens for clients
	DefaultSocketPath = "/run/ws2812d/ws2812d.sock"
)

// Every client message starts with a verb byte. VerbWrite carries one or
// more strip packets behind it; VerbRead carries nothing and asks for the
// next queued reply.
const (
	VerbWrite byte = iota
	VerbRead
)

// Every daemon reply starts with a status byte. StatusError is followed by
// the error text; StatusOK is followed by the verb's payload, if any.
const (
	StatusOK byte = iota
	StatusError
)

// MaxMessageSize bounds one socket message in either direction. The largest
// payload is a full blink pattern dump: a 5-byte pixel packet header plus 3
// bytes for each of up to 255x255 pattern pixels, behind the verb or status
// byte.
const MaxMessageSize = 1 + 5 + 3*255*255
