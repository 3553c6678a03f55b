package controller

import (
	"bytes"
	"encoding/gob"
	"log"

	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/persist"
	"github.com/ledcore/ws2812d/system/strip"
)

// StartupConfig persists the configured strip length across daemon
// restarts. Pixel contents and mode state deliberately stay volatile; only
// the host-side configuration survives.
type StartupConfig struct {
	session *strip.Session
	loaded  uint16
}

var _ persist.Registry = &StartupConfig{}

// NewStartupConfig returns a registry entry bound to the session
func NewStartupConfig(session *strip.Session) *StartupConfig {
	return &StartupConfig{
		session: session,
	}
}

// Name satisfies persist.Registry
func (s *StartupConfig) Name() string {
	return "StartupConfig"
}

// Value snapshots the live session length
func (s *StartupConfig) Value() []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.session.Length()); err != nil {
		log.Printf("[controller] cannot encode startup config: %+v\n", err)
		return nil
	}
	return buf.Bytes()
}

// Load decodes a previously saved length
func (s *StartupConfig) Load(v []byte) error {
	if len(v) == 0 {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(&s.loaded)
}

// Apply pushes the restored length to the strip. A zero length means
// nothing was ever saved and the strip is left alone.
func (s *StartupConfig) Apply() error {
	if s.loaded == 0 {
		return nil
	}
	log.Printf("[controller] restoring strip length %d\n", s.loaded)
	_, err := s.session.Write(devfile.EncodeLen(s.loaded))
	return err
}

// Close satisfies persist.Registry
func (s *StartupConfig) Close() error {
	return nil
}
