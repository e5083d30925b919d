// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sitebuild/internal/config"
	"sitebuild/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.SrcDir = filepath.Join(root, "src")
	cfg.DistDir = filepath.Join(root, "docs")
	return cfg
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuilderStage(t *testing.T) {
	b := newBuilder(testConfig(t), false)
	for _, name := range []string{"clean", "pages", "scripts", "fonts", "fontface", "styles", "sprites", "images", "resources"} {
		task, ok := b.stage(name)
		if !ok {
			t.Errorf("stage %q not found", name)
			continue
		}
		if task.Name != name {
			t.Errorf("stage %q has task name %q", name, task.Name)
		}
	}
	if _, ok := b.stage("deploy"); ok {
		t.Error("deploy is not a build stage")
	}
}

func TestNewBuilder_ToolSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tools.Dir = "site"
	cfg.Tools.Env = []string{"NODE_PATH=node_modules"}

	b := newBuilder(cfg, false)
	if b.runner.Dir != "site" || len(b.runner.Env) != 1 || b.runner.Env[0] != "NODE_PATH=node_modules" {
		t.Errorf("runner = %+v", b.runner)
	}
}

func TestBuilderPagesLang(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pages.Lang = "ro"
	writeFile(t, cfg.Src("pages", "index.md"), "# Acasă\n")

	task, _ := newBuilder(cfg, false).stage("pages")
	if err := pipeline.Run(context.Background(), task); err != nil {
		t.Fatalf("pages: %v", err)
	}
	got, err := os.ReadFile(cfg.Dist("index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `lang="ro"`) {
		t.Errorf("index.html lacks lang=\"ro\":\n%s", got)
	}
}

func TestBuilderFontFace(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Dist("fonts", "Roboto.woff"), "")
	writeFile(t, cfg.Dist("fonts", "Roboto.woff2"), "")
	writeFile(t, cfg.Dist("fonts", "OpenSans.woff"), "")

	b := newBuilder(cfg, false)
	task, _ := b.stage("fontface")
	if err := pipeline.Run(context.Background(), task); err != nil {
		t.Fatalf("fontface: %v", err)
	}

	got, err := os.ReadFile(cfg.FontsPartial())
	if err != nil {
		t.Fatal(err)
	}
	want := "@include font-face(\"OpenSans\", \"OpenSans\", 400);\r\n" +
		"@include font-face(\"Roboto\", \"Roboto\", 400);\r\n"
	if string(got) != want {
		t.Errorf("partial = %q, want %q", got, want)
	}
}

func TestBuilderCleanAndResources(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Dist("stale.txt"), "old")
	writeFile(t, cfg.Src("resources", "robots.txt"), "User-agent: *")
	writeFile(t, cfg.Src("resources", ".well-known", "security.txt"), "Contact: x")

	b := newBuilder(cfg, false)
	task := pipeline.Series("test", b.clean(), b.resources())
	if err := pipeline.Run(context.Background(), task); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(cfg.Dist("stale.txt")); !os.IsNotExist(err) {
		t.Error("clean should remove stale output")
	}
	for _, rel := range []string{"robots.txt", ".well-known/security.txt"} {
		if _, err := os.Stat(cfg.Dist(filepath.FromSlash(rel))); err != nil {
			t.Errorf("%s not copied: %v", rel, err)
		}
	}
}
