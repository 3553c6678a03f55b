package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledcore/ws2812d/background"
	"github.com/ledcore/ws2812d/controller"
	"github.com/ledcore/ws2812d/supervisor"
	"github.com/ledcore/ws2812d/system/shared"
	"github.com/ledcore/ws2812d/util"

	suture "github.com/thejerf/suture/v4"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Compile time injected variables
var (
	Version     = "v0.0.0-dev"
	IsDebug     = "yes"
	logLocation = "/var/log/ws2812d.log"
)

func main() {

	var socketPath = flag.String("socket", shared.DefaultSocketPath, "path of the client socket")
	var settingsPath = flag.String("settings", "", "path of the persisted settings file")
	flag.Parse()

	if IsDebug == "no" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logLocation,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		})
	}

	log.Printf("ws2812d version: %s\n", Version)

	notifier := background.NewNotifier()

	versionChecker, err := background.NewVersionCheck(Version, "ledcore/ws2812d", notifier.C)
	if err != nil {
		log.Fatalf("[daemon] cannot get version checker: %+v\n", err)
	}

	runConfig := controller.RunConfig{
		DryRun:       os.Getenv("DRY_RUN") != "",
		SocketPath:   *socketPath,
		SettingsPath: *settingsPath,
		NotifierCh:   notifier.C,
	}

	dep, err := controller.GetDependencies(runConfig)
	if err != nil {
		log.Fatalf("[daemon] cannot get dependencies: %+v\n", err)
	}

	control, err := controller.NewController(controller.Config{
		Session:    dep.Session,
		Registry:   dep.ConfigRegistry,
		SocketPath: runConfig.SocketPath,
		NotifierCh: notifier.C,
	})
	if err != nil {
		log.Fatalf("[daemon] cannot create controller: %+v\n", err)
	}

	evtHook := &supervisor.EventHook{
		Notifier: notifier.C,
	}

	ctx, cancel := context.WithCancel(context.Background())

	backgroundSupervisor := suture.New("backgroundSupervisor", suture.Spec{})
	backgroundSupervisor.Add(versionChecker)
	backgroundSupervisor.Add(notifier)

	rootSupervisor := suture.New("Supervisor", suture.Spec{
		EventHook: evtHook.Event,
	})
	rootSupervisor.Add(control)
	rootSupervisor.Add(backgroundSupervisor)

	sigc := make(chan os.Signal, 1)

	go func() {
		notifier.C <- util.Notification{
			Message:   "Starting up ws2812d",
			Immediate: true,
			Delay:     time.Second * 2,
		}
		supervisorErr := rootSupervisor.Serve(ctx)
		if supervisorErr != nil {
			log.Printf("[daemon] rootSupervisor returns error: %+v\n", supervisorErr)
			sigc <- syscall.SIGTERM
		}
	}()

	signal.Notify(
		sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigc
	log.Printf("[daemon] signal received: %+v\n", sig)

	cancel()
	if err := dep.ConfigRegistry.Save(); err != nil {
		log.Printf("[daemon] cannot save settings: %+v\n", err)
	}
	dep.ConfigRegistry.Close()
	dep.Session.Release()
	time.Sleep(time.Second) // 1 second for grace period
}
