package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"widgetstore/config"
	"widgetstore/internal/obslog"
	"widgetstore/store"
)

var (
	// Version is set during build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "show version information")
	demo := flag.Bool("demo", false, "populate the store with a handful of widgets on startup")
	flag.Parse()

	if *showVersion {
		fmt.Printf("widgetstore %s\n", Version)
		return
	}

	cfg := config.DefaultOptions()
	if *configPath != "" {
		if err := cfg.LoadFromFile(*configPath); err != nil {
			fatal("load config file: %v", err)
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fatal("load config from env: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration: %v", err)
	}

	logger := obslog.New("widgetstore", parseLevel(*logLevel))

	s, err := store.New(cfg, logger)
	if err != nil {
		fatal("initialize store: %v", err)
	}

	if *demo {
		seedDemoData(s, logger)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go runVacuumLoop(s, cfg.VacuumRate, logger, done)

	logger.Info("widgetstore started", obslog.Fields{"version": Version})
	<-stop
	close(done)
	logger.Info("widgetstore shutdown complete", nil)
}

// runVacuumLoop runs Vacuum on cfg.VacuumRate until done is closed — the
// store never schedules its own vacuum (spec.md §4.6), so the demo
// binary plays the role of the "external scheduler".
func runVacuumLoop(s *store.Store, rate time.Duration, logger *obslog.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			report := s.Vacuum()
			stats := s.Stats()
			logger.Debug("periodic vacuum", obslog.Fields{
				"versions_removed": report.VersionsRemoved,
				"chains_dropped":   report.ChainsDropped,
				"widget_count":     stats.WidgetCount,
			})
		case <-done:
			return
		}
	}
}

func seedDemoData(s *store.Store, logger *obslog.Logger) {
	for i := int32(0); i < 5; i++ {
		w, err := s.CreateAtTop(i*10, i*10, 40, 40)
		if err != nil {
			logger.Warn("demo seed failed", obslog.Fields{"error": err.Error()})
			continue
		}
		logger.Info("demo widget created", obslog.Fields{"id": w.ID, "z": w.Z})
	}
}

func parseLevel(s string) obslog.Level {
	switch s {
	case "debug":
		return obslog.LevelDebug
	case "warn":
		return obslog.LevelWarn
	case "error":
		return obslog.LevelError
	default:
		return obslog.LevelInfo
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
