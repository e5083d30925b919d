// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"sitebuild/internal/cache"
	"sitebuild/internal/config"
	"sitebuild/internal/deploy"
	"sitebuild/internal/fsutil"
	"sitebuild/internal/pipeline"
	"sitebuild/internal/server"
	"sitebuild/internal/storage"
)

// Build runs the full pipeline.
type Build struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
	Dev    bool   `name:"dev" desc:"Skip optimization and emit source maps"`
}

func (cmd *Build) Run() error {
	cfg := setup(cmd.Config, cmd.Dev)
	return run(func(ctx context.Context) error {
		b := newBuilder(cfg, cmd.Dev)
		defer b.close()
		return pipeline.Run(ctx, b.build())
	})
}

// Dev builds for development and serves the result.
type Dev struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Dev) Run() error {
	cfg := setup(cmd.Config, true)
	return run(func(ctx context.Context) error {
		b := newBuilder(cfg, true)
		defer b.close()
		if err := pipeline.Run(ctx, b.build()); err != nil {
			return err
		}
		return server.Serve(ctx, cfg.Addr(), server.New(cfg.DistDir))
	})
}

// Serve serves the existing output directory.
type Serve struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Serve) Run() error {
	cfg := setup(cmd.Config, false)
	return run(func(ctx context.Context) error {
		return server.Serve(ctx, cfg.Addr(), server.New(cfg.DistDir))
	})
}

// Clean empties the output directory.
type Clean struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Clean) Run() error {
	cfg := setup(cmd.Config, false)
	return run(func(ctx context.Context) error {
		return fsutil.Clean(cfg.DistDir)
	})
}

// runStage runs the single named build stage.
func runStage(name, configPath string, dev bool) error {
	cfg := setup(configPath, dev)
	return run(func(ctx context.Context) error {
		b := newBuilder(cfg, dev)
		defer b.close()
		task, ok := b.stage(name)
		if !ok {
			return fmt.Errorf("unknown stage %q", name)
		}
		return pipeline.Run(ctx, task)
	})
}

// Pages renders the pages.
type Pages struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Pages) Run() error { return runStage("pages", cmd.Config, false) }

// Scripts bundles the scripts.
type Scripts struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
	Dev    bool   `name:"dev" desc:"Emit source maps"`
}

func (cmd *Scripts) Run() error { return runStage("scripts", cmd.Config, cmd.Dev) }

// Fonts converts TTF fonts.
type Fonts struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Fonts) Run() error { return runStage("fonts", cmd.Config, false) }

// FontFace regenerates the font-face partial from the converted fonts.
type FontFace struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *FontFace) Run() error { return runStage("fontface", cmd.Config, false) }

// Styles compiles the style sheets.
type Styles struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
	Dev    bool   `name:"dev" desc:"Emit source maps and skip minification"`
}

func (cmd *Styles) Run() error { return runStage("styles", cmd.Config, cmd.Dev) }

// Sprites builds the SVG sprite.
type Sprites struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Sprites) Run() error { return runStage("sprites", cmd.Config, false) }

// Images copies and optimizes the images.
type Images struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
	Dev    bool   `name:"dev" desc:"Copy images without optimizing"`
}

func (cmd *Images) Run() error { return runStage("images", cmd.Config, cmd.Dev) }

// Resources copies the static resources.
type Resources struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
}

func (cmd *Resources) Run() error { return runStage("resources", cmd.Config, false) }

// Deploy uploads the output directory.
type Deploy struct {
	Config string `short:"c" name:"config" desc:"Configuration file (default sitebuild.yaml)"`
	DryRun bool   `short:"n" name:"dry-run" desc:"List the files that would be uploaded"`
	Force  bool   `short:"f" name:"force" desc:"Upload every file regardless of the manifest"`
	Reset  bool   `name:"reset" desc:"Forget recorded fingerprints before deploying"`
}

// resetter is implemented by manifests that can forget every entry.
type resetter interface {
	Reset(ctx context.Context) error
}

func (cmd *Deploy) Run() error {
	cfg := setup(cmd.Config, false)
	return run(func(ctx context.Context) error {
		if err := cfg.ValidateDeploy(); err != nil {
			return err
		}
		client, err := storage.New(storageOptions(cfg))
		if err != nil {
			return err
		}

		manifest, closeManifest, err := openManifest(cfg)
		if err != nil {
			return err
		}
		defer closeManifest()

		if cmd.Reset {
			if err := resetManifest(ctx, manifest); err != nil {
				return err
			}
		}

		report, err := deploy.Run(ctx, client, manifest, deploy.Options{
			Root:     cfg.DistDir,
			Prefix:   cfg.Deploy.Prefix,
			Parallel: cfg.Deploy.Parallel,
			DryRun:   cmd.DryRun,
			Force:    cmd.Force,
		})
		if cmd.DryRun {
			for _, key := range report.Uploaded {
				fmt.Println(client.FileURL(key))
			}
		}
		return err
	})
}

// storageOptions maps the deploy settings onto the S3 client.
func storageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Endpoint:  cfg.Deploy.Endpoint,
		Region:    cfg.Deploy.Region,
		AccessKey: cfg.Deploy.AccessKey,
		SecretKey: cfg.Deploy.SecretKey,
		Bucket:    cfg.Deploy.Bucket,
		Public:    cfg.Deploy.Public,
	}
}

// resetManifest forgets every recorded fingerprint of m.
func resetManifest(ctx context.Context, m deploy.Manifest) error {
	r, ok := m.(resetter)
	if !ok {
		return fmt.Errorf("deploy manifest %T cannot be reset", m)
	}
	return r.Reset(ctx)
}

// openManifest picks the Valkey manifest when a host is configured and the
// JSON file manifest otherwise.
func openManifest(cfg *config.Config) (deploy.Manifest, func(), error) {
	if cfg.Valkey.Host == "" {
		return deploy.NewFileManifest(cfg.Deploy.Manifest), func() {}, nil
	}
	client, err := cache.ConnectValkey(cfg.Valkey.Host, cfg.Valkey.Port, cfg.Valkey.Password)
	if err != nil {
		return nil, nil, err
	}
	target := cfg.Deploy.Bucket + "/" + cfg.Deploy.Prefix
	slog.Debug("using valkey deploy manifest", "target", target)
	return cache.NewManifest(client, target), func() { client.Close() }, nil
}
