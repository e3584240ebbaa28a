// Command charon runs the keyboard-interception daemon: it grabs a
// USB keyboard, reshapes its reports through a configurable pipeline,
// and re-emits them through a USB HID gadget.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ddrcode/charon/config"
	"github.com/ddrcode/charon/internal/charonerr"
	"github.com/ddrcode/charon/internal/lockfile"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/supervisor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logLevel := logger.InfoLevel
	if opts.debug {
		logLevel = logger.DebugLevel
	}
	log := logger.NewDefaultLogger(logLevel)

	lockPath := lockfile.DefaultPath()
	lock := lockfile.New(lockPath)
	if running, pid, err := lockfile.CheckExistingInstance(lockPath); err != nil {
		log.Warning("failed to check for an existing instance: %v", err)
	} else if running {
		fmt.Fprintf(os.Stderr, "another instance of charon is already running (PID %d)\n", pid)
		fmt.Fprintf(os.Stderr, "if you're sure no other instance is running, remove the lock file: %s\n", lockPath)
		return 1
	}

	if err := lock.TryLock(); err != nil {
		log.Error("failed to acquire the single-instance lock: %v", err)
		return 1
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warning("failed to release lock: %v", err)
		}
	}()

	cfg, usedDefaults, err := config.Load(opts.configFile)
	if err != nil {
		log.Error("failed to load configuration: %v", err)
		if errors.Is(err, charonerr.ErrConfiguration) {
			return 2
		}
		return 1
	}
	if usedDefaults {
		log.Warning("no config file at %s, running with defaults", opts.configFile)
	}

	sup, err := supervisor.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize: %v", err)
		if errors.Is(err, charonerr.ErrConfiguration) {
			return 2
		}
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received %s, shutting down", sig)
		sup.RequestShutdown()
	}()

	if err := sup.Run(ctx); err != nil {
		log.Error("daemon stopped with an error: %v", err)
		return 1
	}

	log.Info("shutdown complete")
	return 0
}
