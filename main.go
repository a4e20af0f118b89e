package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/app"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to a JSON or YAML configuration file")
	debugFlag := flag.Bool("debug", false, "enable debug logging and debug log lines")
	autoStart := flag.Bool("autostart", true, "start a detection session immediately")
	exitOnEnd := flag.Bool("exit-on-end", false, "exit once the frame source is exhausted")
	sourceMode := flag.String("source", "", "override source mode: camera, video or synthetic")
	detectorMode := flag.String("detector", "", "override detector mode: process, replay or none")
	replayPath := flag.String("replay", "", "replay file for the replay detector")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	level := slog.LevelInfo
	if *debugFlag || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(os.Stderr, level)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *configPath, "error", err)
	}

	if *debugFlag {
		cfg.Debug = true
	}
	if *sourceMode != "" {
		cfg.Source.Mode = *sourceMode
	}
	if *detectorMode != "" {
		cfg.Detector.Mode = *detectorMode
	}
	if *replayPath != "" {
		cfg.Detector.ReplayPath = *replayPath
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting assistant",
		"config", *configPath,
		"source", cfg.Source.Mode,
		"detector", cfg.Detector.Mode,
		"language", cfg.Language,
		"voice_mode", cfg.VoiceMode,
	)

	c, err := app.BuildContainer(ctx, cfg, logger, app.Overrides{})
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	err = app.NewApp(c).Run(ctx, app.RunOptions{
		AutoStart: *autoStart,
		ExitOnEnd: *exitOnEnd,
		Commands:  os.Stdin,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("assistant stopped")
}
