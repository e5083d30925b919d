// Package deploy uploads the output tree to object storage, skipping every
// file whose content fingerprint matches what the manifest recorded for the
// previous deploy.
package deploy

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"sitebuild/internal/fsutil"
)

// DefaultParallel bounds concurrent uploads when Options.Parallel is 0.
const DefaultParallel = 10

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
}

// Manifest remembers the fingerprint of every uploaded object key.
type Manifest interface {
	Load(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, entries map[string]string) error
}

// Options configures a deploy.
type Options struct {
	Root     string // local output directory
	Prefix   string // remote key prefix, e.g. "public_html/"
	Parallel int
	DryRun   bool // report what would be uploaded without uploading
	Force    bool // ignore the manifest and upload everything
}

// Report summarises a deploy.
type Report struct {
	Uploaded []string
	Skipped  int
	Bytes    int64
}

// Fingerprint returns the hex BLAKE2b-256 digest of the file at p.
func Fingerprint(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentType guesses the MIME type from the file extension.
func ContentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ObjectKey maps a slash-separated relative path to its remote key.
func ObjectKey(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// Run uploads the changed files under opts.Root. Fingerprints of files that
// were uploaded are recorded even when a later upload fails, so a rerun only
// retries what is still missing.
func Run(ctx context.Context, up Uploader, m Manifest, opts Options) (Report, error) {
	var report Report
	start := time.Now()

	files, err := fsutil.Find(opts.Root, true, nil)
	if err != nil {
		return report, err
	}

	known := map[string]string{}
	if !opts.Force {
		if known, err = m.Load(ctx); err != nil {
			return report, err
		}
	}

	type pending struct {
		rel, key, sum string
		size          int64
	}
	var todo []pending
	for _, rel := range files {
		p := filepath.Join(opts.Root, filepath.FromSlash(rel))
		sum, err := Fingerprint(p)
		if err != nil {
			return report, fmt.Errorf("deploy: fingerprint %s: %w", rel, err)
		}
		key := ObjectKey(opts.Prefix, rel)
		if known[key] == sum {
			report.Skipped++
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return report, fmt.Errorf("deploy: stat %s: %w", rel, err)
		}
		todo = append(todo, pending{rel: rel, key: key, sum: sum, size: info.Size()})
	}

	if opts.DryRun {
		for _, p := range todo {
			report.Uploaded = append(report.Uploaded, p.key)
			report.Bytes += p.size
		}
		slog.Info("deploy dry run", "would_upload", len(todo), "skipped", report.Skipped)
		return report, nil
	}

	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	var (
		mu   sync.Mutex
		done = make(map[string]string, len(todo))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, p := range todo {
		g.Go(func() error {
			if err := upload(gctx, up, filepath.Join(opts.Root, filepath.FromSlash(p.rel)), p.key, p.size); err != nil {
				return err
			}
			mu.Lock()
			done[p.key] = p.sum
			report.Uploaded = append(report.Uploaded, p.key)
			report.Bytes += p.size
			mu.Unlock()
			slog.Debug("object uploaded", "key", p.key, "size", p.size)
			return nil
		})
	}
	uploadErr := g.Wait()

	// Record successes with the parent context; gctx is canceled on failure.
	if err := m.Put(ctx, done); err != nil {
		if uploadErr != nil {
			return report, fmt.Errorf("deploy: %w (also failed to record manifest: %v)", uploadErr, err)
		}
		return report, fmt.Errorf("deploy: record manifest: %w", err)
	}
	if uploadErr != nil {
		return report, fmt.Errorf("deploy: %w", uploadErr)
	}

	slog.Info("deploy finished",
		"uploaded", len(report.Uploaded),
		"skipped", report.Skipped,
		"bytes", report.Bytes,
		"duration", time.Since(start).String(),
	)
	return report, nil
}

func upload(ctx context.Context, up Uploader, p, key string, size int64) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	return up.Upload(ctx, key, ContentType(key), f, size)
}
