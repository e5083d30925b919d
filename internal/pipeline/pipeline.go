// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline composes build stages. A Task is a named unit of work;
// Series runs tasks one after another and stops at the first failure,
// Parallel runs them concurrently and cancels the rest when one fails.
// Every task run is logged with its duration and the build id.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Task is a named build stage.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Func creates a leaf task.
func Func(name string, run func(ctx context.Context) error) Task {
	return Task{Name: name, Run: run}
}

// Execute runs the task, logging start, finish and failure.
func (t Task) Execute(ctx context.Context) error {
	start := time.Now()
	log := slog.With("stage", t.Name, "build_id", BuildID(ctx))
	log.Debug("stage started")

	if err := t.Run(ctx); err != nil {
		log.Error("stage failed", "duration", time.Since(start).String(), "error", err)
		return fmt.Errorf("%s: %w", t.Name, err)
	}

	log.Info("stage finished", "duration", time.Since(start).String())
	return nil
}

// Series runs tasks in order, stopping at the first error.
func Series(name string, tasks ...Task) Task {
	return Task{Name: name, Run: func(ctx context.Context) error {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.Execute(ctx); err != nil {
				return err
			}
		}
		return nil
	}}
}

// Parallel runs tasks concurrently and returns the first error. The context
// passed to the remaining tasks is canceled once one fails.
func Parallel(name string, tasks ...Task) Task {
	return Task{Name: name, Run: func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, t := range tasks {
			g.Go(func() error {
				return t.Execute(gctx)
			})
		}
		return g.Wait()
	}}
}

type buildIDKey struct{}

// WithBuildID returns a context carrying a fresh build id.
func WithBuildID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, buildIDKey{}, id), id
}

// BuildID returns the build id stored in ctx, or "" if none.
func BuildID(ctx context.Context) string {
	id, _ := ctx.Value(buildIDKey{}).(string)
	return id
}

// Run executes root under a new build id.
func Run(ctx context.Context, root Task) error {
	ctx, id := WithBuildID(ctx)
	start := time.Now()
	slog.Info("build started", "task", root.Name, "build_id", id)
	if err := root.Execute(ctx); err != nil {
		return err
	}
	slog.Info("build finished", "task", root.Name, "build_id", id, "duration", time.Since(start).String())
	return nil
}
