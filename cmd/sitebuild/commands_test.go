// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"sitebuild/internal/config"
	"sitebuild/internal/deploy"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		want    slog.Level
		wantErr bool
	}{
		{"development default", "development", "", slog.LevelDebug, false},
		{"production default", "production", "", slog.LevelInfo, false},
		{"explicit wins in development", "development", "warn", slog.LevelWarn, false},
		{"explicit lower case", "production", "debug", slog.LevelDebug, false},
		{"unknown falls back to info", "development", "loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Env = tt.env
			cfg.LogLevel = tt.level

			got, err := logLevel(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogLevel_DefaultConfigInDevelopment(t *testing.T) {
	// Defaults alone must leave room for the development debug level.
	got, err := logLevel(config.Default())
	if err != nil || got != slog.LevelDebug {
		t.Errorf("logLevel(Default()) = %v, %v; want DEBUG", got, err)
	}
}

func TestStorageOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Deploy.Endpoint = "https://s3.example.com"
	cfg.Deploy.Bucket = "site"
	cfg.Deploy.AccessKey = "ak"
	cfg.Deploy.SecretKey = "sk"
	cfg.Deploy.Public = true

	opts := storageOptions(cfg)
	if opts.Endpoint != "https://s3.example.com" || opts.Bucket != "site" || opts.Region != "us-east-1" {
		t.Errorf("options = %+v", opts)
	}
	if opts.AccessKey != "ak" || opts.SecretKey != "sk" {
		t.Errorf("credentials not passed through: %+v", opts)
	}
	if !opts.Public {
		t.Error("Public not passed through")
	}
}

func TestOpenManifest_File(t *testing.T) {
	cfg := config.Default()
	cfg.Deploy.Manifest = filepath.Join(t.TempDir(), "deploy.json")

	m, closeFn, err := openManifest(cfg)
	if err != nil {
		t.Fatalf("openManifest: %v", err)
	}
	defer closeFn()
	if _, ok := m.(*deploy.FileManifest); !ok {
		t.Errorf("manifest = %T, want *deploy.FileManifest", m)
	}
}

func TestOpenManifest_ValkeyUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Valkey.Host = "127.0.0.1"
	cfg.Valkey.Port = "1"

	if _, _, err := openManifest(cfg); err == nil {
		t.Error("expected an error when Valkey is configured but unreachable")
	}
}

func TestResetManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.json")
	m := deploy.NewFileManifest(path)
	ctx := context.Background()
	if err := m.Put(ctx, map[string]string{"public_html/index.html": "aa"}); err != nil {
		t.Fatal(err)
	}

	if err := resetManifest(ctx, m); err != nil {
		t.Fatalf("resetManifest: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("manifest file still present: %v", err)
	}
}

// loadOnly is a manifest without Reset.
type loadOnly struct{}

func (loadOnly) Load(context.Context) (map[string]string, error) { return nil, nil }
func (loadOnly) Put(context.Context, map[string]string) error { return nil }

func TestResetManifest_Unsupported(t *testing.T) {
	if err := resetManifest(context.Background(), loadOnly{}); err == nil {
		t.Error("expected an error for a manifest that cannot be reset")
	}
}
