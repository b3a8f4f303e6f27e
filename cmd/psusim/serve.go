package main

import (
	"context"
	"fmt"

	"github.com/psusim/psusim/internal/console"
	"github.com/psusim/psusim/internal/infrastructure/config"
	"github.com/psusim/psusim/internal/infrastructure/logging"
)

// runServe runs the simulator until ctx is cancelled.
func runServe(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting psusim", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	s, err := newStack(ctx, cfg, log, stackOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.run(ctx, nil); err != nil {
		return err
	}
	log.Info("psusim stopped")
	return nil
}

// runConsole runs the simulator with the interactive console in the
// foreground. Logging is silenced since the console owns the terminal.
func runConsole(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.Discard()

	s, err := newStack(ctx, cfg, log, stackOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	c := console.New(s.sim, s.historyReader())
	return s.run(ctx, c.Run)
}
