// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// manifest.go stores the fingerprint of every deployed object in a Valkey
// hash, so a deploy from any machine can skip files the bucket already has.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// manifestKeyPrefix is the Valkey key prefix for deploy manifests.
const manifestKeyPrefix = "deploy:"

// Manifest is a deploy manifest backed by one Valkey hash per target.
type Manifest struct {
	client *redis.Client
	key    string
}

// NewManifest creates a manifest for the given target (bucket + prefix).
func NewManifest(client *redis.Client, target string) *Manifest {
	return &Manifest{client: client, key: manifestKeyPrefix + target}
}

// Key returns the Valkey key holding the manifest.
func (m *Manifest) Key() string {
	return m.key
}

// Load returns every recorded object key and its fingerprint.
func (m *Manifest) Load(ctx context.Context) (map[string]string, error) {
	entries, err := m.client.HGetAll(ctx, m.key).Result()
	if err != nil {
		return nil, fmt.Errorf("manifest load %s: %w", m.key, err)
	}
	slog.Debug("deploy manifest loaded", "key", m.key, "entries", len(entries))
	return entries, nil
}

// Put records fingerprints for the given object keys.
func (m *Manifest) Put(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	args := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		args = append(args, k, v)
	}
	if err := m.client.HSet(ctx, m.key, args...).Err(); err != nil {
		return fmt.Errorf("manifest put %s: %w", m.key, err)
	}
	return nil
}

// Reset forgets every fingerprint, forcing a full upload next time.
func (m *Manifest) Reset(ctx context.Context) error {
	if err := m.client.Del(ctx, m.key).Err(); err != nil {
		return fmt.Errorf("manifest reset %s: %w", m.key, err)
	}
	slog.Info("deploy manifest reset", "key", m.key)
	return nil
}
