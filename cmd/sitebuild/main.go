// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the sitebuild command line. Each subcommand loads the
// configuration, installs the logger and runs one stage or a whole build.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tdewolff/argp"

	"sitebuild/internal/config"
)

func main() {
	cmd := argp.New("Static site asset pipeline")
	cmd.AddCmd(&Build{}, "build", "Clean and build the whole site")
	cmd.AddCmd(&Dev{}, "dev", "Build without optimization, then serve the output")
	cmd.AddCmd(&Serve{}, "serve", "Serve the output directory")
	cmd.AddCmd(&Clean{}, "clean", "Remove everything inside the output directory")
	cmd.AddCmd(&Pages{}, "pages", "Render pages")
	cmd.AddCmd(&Scripts{}, "scripts", "Bundle scripts")
	cmd.AddCmd(&Fonts{}, "fonts", "Convert TTF fonts to WOFF and WOFF2")
	cmd.AddCmd(&FontFace{}, "fonts-style", "Regenerate the font-face partial")
	cmd.AddCmd(&Styles{}, "styles", "Compile style sheets")
	cmd.AddCmd(&Sprites{}, "sprites", "Build the SVG sprite")
	cmd.AddCmd(&Images{}, "img", "Copy and optimize images")
	cmd.AddCmd(&Resources{}, "resources", "Copy static resources")
	cmd.AddCmd(&Deploy{}, "deploy", "Upload changed output files to object storage")
	cmd.Parse()
}

// setup loads the configuration and installs the default logger.
func setup(path string, dev bool) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if dev {
		cfg.Env = "development"
	}

	level, err := logLevel(cfg)
	if err != nil {
		slog.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Debug("configuration loaded",
		"env", cfg.Env,
		"src", cfg.SrcDir,
		"dist", cfg.DistDir,
	)
	return cfg
}

// logLevel returns the configured level. Without one, development logs at
// debug and everything else at info.
func logLevel(cfg *config.Config) (slog.Level, error) {
	if cfg.LogLevel == "" {
		if cfg.IsDev() {
			return slog.LevelDebug, nil
		}
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// run executes fn with a context canceled on SIGINT or SIGTERM and exits
// non-zero when it fails.
func run(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
	return nil
}
