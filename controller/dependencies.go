package controller

import (
	"log"

	"github.com/ledcore/ws2812d/firmware"
	"github.com/ledcore/ws2812d/system/persist"
	"github.com/ledcore/ws2812d/system/strip"
	"github.com/ledcore/ws2812d/system/transport"
	"github.com/ledcore/ws2812d/util"
)

// RunConfig contains the start up configuration for the controller
type RunConfig struct {
	DryRun       bool
	SocketPath   string
	SettingsPath string
	NotifierCh   chan util.Notification
}

// Dependencies holds the long-lived pieces the supervisor tree wires
// together. The session carries one reference owned by the daemon itself;
// it is released on shutdown.
type Dependencies struct {
	Session        *strip.Session
	ConfigRegistry persist.ConfigRegistry
	Startup        *StartupConfig
}

// GetDependencies attaches to the strip and builds the persistence layer.
// In dry-run mode the in-process controller emulator replaces the physical
// device and saves are suppressed.
func GetDependencies(conf RunConfig) (*Dependencies, error) {
	var endpoint transport.Endpoint
	var config persist.ConfigRegistry
	var err error

	if conf.DryRun {
		log.Println("[controller] dry run: emulated strip controller")
		endpoint = firmware.New(firmware.Discard{})
		config, err = persist.NewDryFileConfigHelper(conf.SettingsPath)
		if err != nil {
			return nil, err
		}
	} else {
		endpoint, err = transport.OpenDevice(transport.VendorID, transport.ProductID)
		if err != nil {
			return nil, err
		}
		config, err = persist.NewFileConfigHelper(conf.SettingsPath)
		if err != nil {
			return nil, err
		}
	}

	session := strip.NewSession(transport.NewConn(endpoint))
	startup := NewStartupConfig(session)
	config.Register(startup)

	return &Dependencies{
		Session:        session,
		ConfigRegistry: config,
		Startup:        startup,
	}, nil
}
