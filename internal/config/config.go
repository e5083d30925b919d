// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles build configuration. Values start from built-in
// defaults, are overlaid by an optional sitebuild.yaml file and finally by
// environment variables, so CI can override anything without editing files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read by Load when no explicit path is given and it exists.
const DefaultFile = "sitebuild.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all build, serve and deploy settings.
type Config struct {
	Env      string `yaml:"env"` // "development", "production"
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"` // empty means debug in development, info otherwise

	SrcDir  string `yaml:"src"`
	DistDir string `yaml:"dist"`

	Tools   ToolsConfig   `yaml:"tools"`
	Fonts   FontsConfig   `yaml:"fonts"`
	Styles  StylesConfig  `yaml:"styles"`
	Scripts ScriptsConfig `yaml:"scripts"`
	Pages   PagesConfig   `yaml:"pages"`
	Images  ImagesConfig  `yaml:"images"`
	Deploy  DeployConfig  `yaml:"deploy"`
	Valkey  ValkeyConfig  `yaml:"valkey"`
}

// ToolsConfig sets how external converters (sass, ttf2woff) are started.
type ToolsConfig struct {
	Dir string   `yaml:"dir"` // working directory; empty means the current one
	Env []string `yaml:"env"` // KEY=VALUE pairs added to the environment
}

// PagesConfig controls page rendering.
type PagesConfig struct {
	Lang string `yaml:"lang"` // html lang attribute
}

// FontsConfig controls font conversion and the font-face partial.
type FontsConfig struct {
	Partial string `yaml:"partial"` // empty means <src>/scss/_fonts.scss
	Weight  int    `yaml:"weight"`
	Dedup   string `yaml:"dedup"` // "adjacent" or "unique"
	WOFF    string `yaml:"woff"`  // converter command, {in}/{out} placeholders
	WOFF2   string `yaml:"woff2"`
}

// StylesConfig controls SCSS compilation.
type StylesConfig struct {
	Sass         string   `yaml:"sass"`
	Autoprefixer string   `yaml:"autoprefixer"` // empty disables the step
	LoadPaths    []string `yaml:"load_paths"`
}

// ScriptsConfig controls script bundling.
type ScriptsConfig struct {
	Entry  string `yaml:"entry"` // relative to the js source dir
	Target string `yaml:"target"`
}

// ImagesConfig controls image optimization.
type ImagesConfig struct {
	Optimize       bool  `yaml:"optimize"`
	JPEGQuality    int   `yaml:"jpeg_quality"`
	PNGCompression int   `yaml:"png_compression"`
	WebPVariants   bool  `yaml:"webp_variants"`
	FaviconSizes   []int `yaml:"favicon_sizes"`
	Concurrency    int   `yaml:"concurrency"`
}

// DeployConfig holds the S3-compatible upload target.
type DeployConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Parallel  int    `yaml:"parallel"`
	Manifest  string `yaml:"manifest"` // file manifest path when Valkey is not configured
	Public    bool   `yaml:"public"`   // upload with the public-read ACL
}

// ValkeyConfig points at the Valkey instance holding deploy fingerprints.
// An empty host disables it.
type ValkeyConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Env:      "development",
		Host:     "127.0.0.1",
		Port:     "3000",
		SrcDir:   "src",
		DistDir:  "docs",
		Fonts: FontsConfig{
			Weight: 400,
			Dedup:  "adjacent",
			WOFF:   "ttf2woff {in} {out}",
			WOFF2:  "ttf2woff2",
		},
		Styles: StylesConfig{
			Sass: "sass",
		},
		Scripts: ScriptsConfig{
			Entry:  "main.js",
			Target: "es2015",
		},
		Images: ImagesConfig{
			Optimize:       true,
			JPEGQuality:    80,
			PNGCompression: 9,
			FaviconSizes:   []int{16, 32, 180},
		},
		Deploy: DeployConfig{
			Region:   "us-east-1",
			Prefix:   "public_html/",
			Parallel: 10,
			Manifest: ".sitebuild-deploy.json",
		},
		Valkey: ValkeyConfig{
			Port: "6379",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. An empty path reads DefaultFile if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on top of the current values.
func (c *Config) applyEnv() {
	c.Env = envOrDefault("APP_ENV", c.Env)
	c.Host = envOrDefault("APP_HOST", c.Host)
	c.Port = envOrDefault("APP_PORT", c.Port)
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)

	c.SrcDir = envOrDefault("SITEBUILD_SRC", c.SrcDir)
	c.DistDir = envOrDefault("SITEBUILD_DIST", c.DistDir)
	c.Fonts.Dedup = envOrDefault("SITEBUILD_FONT_DEDUP", c.Fonts.Dedup)
	c.Styles.Sass = envOrDefault("SITEBUILD_SASS", c.Styles.Sass)

	c.Deploy.Endpoint = envOrDefault("S3_ENDPOINT", c.Deploy.Endpoint)
	c.Deploy.Region = envOrDefault("S3_REGION", c.Deploy.Region)
	c.Deploy.AccessKey = envOrDefault("S3_ACCESS_KEY", c.Deploy.AccessKey)
	c.Deploy.SecretKey = envOrDefault("S3_SECRET_KEY", c.Deploy.SecretKey)
	c.Deploy.Bucket = envOrDefault("S3_BUCKET", c.Deploy.Bucket)
	c.Deploy.Prefix = envOrDefault("S3_PREFIX", c.Deploy.Prefix)
	if v := os.Getenv("S3_PUBLIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Deploy.Public = b
		}
	}
	if v := os.Getenv("DEPLOY_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Deploy.Parallel = n
		}
	}

	c.Valkey.Host = envOrDefault("VALKEY_HOST", c.Valkey.Host)
	c.Valkey.Port = envOrDefault("VALKEY_PORT", c.Valkey.Port)
	c.Valkey.Password = envOrDefault("VALKEY_PASSWORD", c.Valkey.Password)
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.SrcDir == "" || c.DistDir == "" {
		return fmt.Errorf("%w: src and dist must be set", ErrInvalid)
	}
	if filepath.Clean(c.SrcDir) == filepath.Clean(c.DistDir) {
		return fmt.Errorf("%w: src and dist must differ", ErrInvalid)
	}
	switch c.Fonts.Dedup {
	case "", "adjacent", "unique":
	default:
		return fmt.Errorf("%w: fonts.dedup must be adjacent or unique, got %q", ErrInvalid, c.Fonts.Dedup)
	}
	if c.Fonts.Weight < 0 {
		return fmt.Errorf("%w: fonts.weight must be positive", ErrInvalid)
	}
	if c.Images.JPEGQuality < 0 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("%w: images.jpeg_quality must be 1-100", ErrInvalid)
	}
	return nil
}

// ValidateDeploy checks the settings the deploy command needs.
func (c *Config) ValidateDeploy() error {
	if c.Deploy.Endpoint == "" || c.Deploy.Bucket == "" {
		return fmt.Errorf("%w: S3_ENDPOINT and S3_BUCKET must be set to deploy", ErrInvalid)
	}
	if c.Deploy.AccessKey == "" || c.Deploy.SecretKey == "" {
		return fmt.Errorf("%w: S3_ACCESS_KEY and S3_SECRET_KEY must be set to deploy", ErrInvalid)
	}
	return nil
}

// Src joins parts onto the source directory.
func (c *Config) Src(parts ...string) string {
	return filepath.Join(append([]string{c.SrcDir}, parts...)...)
}

// Dist joins parts onto the output directory.
func (c *Config) Dist(parts ...string) string {
	return filepath.Join(append([]string{c.DistDir}, parts...)...)
}

// FontsPartial returns the path of the generated font-face partial.
func (c *Config) FontsPartial() string {
	if c.Fonts.Partial != "" {
		return c.Fonts.Partial
	}
	return c.Src("scss", "_fonts.scss")
}

// Addr returns the dev server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the build runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
