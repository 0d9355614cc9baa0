// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Reloader re-reads configuration when the config file changes on disk.
// It replays the original CLI arguments on every reload, so --profile
// and --set overrides survive edits to the file. Detection polls the
// file's modification time; editors that replace the file atomically
// are picked up the same as in-place writes.
type Reloader struct {
	path     string
	args     []string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	current   *Config
	modTime   time.Time
	listeners []func(*Config)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithReloadInterval overrides the poll interval (default 1s).
func WithReloadInterval(d time.Duration) ReloaderOption {
	return func(r *Reloader) { r.interval = d }
}

// WithReloadLogger sets the logger used for reload events.
func WithReloadLogger(logger *slog.Logger) ReloaderOption {
	return func(r *Reloader) { r.logger = logger }
}

// NewReloader loads the initial configuration through LoadWithCLI and
// watches path for changes. The args are the CLI overlay arguments the
// process started with, --config included.
func NewReloader(path string, args []string, opts ...ReloaderOption) (*Reloader, error) {
	r := &Reloader{
		path:     path,
		args:     append([]string(nil), args...),
		interval: time.Second,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	cfg, err := LoadWithCLI(r.args)
	if err != nil {
		return nil, err
	}
	r.current = cfg
	if info, err := os.Stat(path); err == nil {
		r.modTime = info.ModTime()
	}
	return r, nil
}

// Current returns the latest good configuration snapshot.
func (r *Reloader) Current() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnChange registers a listener invoked with each new snapshot.
// Register before Start.
func (r *Reloader) OnChange(fn func(*Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Start begins polling. Non-blocking; the loop runs until Stop or
// context cancellation.
func (r *Reloader) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.run(ctx)
}

// Stop halts polling and waits for the loop to exit.
func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

func (r *Reloader) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Reloader) poll() {
	info, err := os.Stat(r.path)
	if err != nil {
		// Transient during atomic saves; the next tick sees the new file.
		return
	}

	r.mu.RLock()
	changed := info.ModTime().After(r.modTime)
	r.mu.RUnlock()
	if !changed {
		return
	}

	cfg, err := LoadWithCLI(r.args)
	if err != nil {
		r.logger.Warn("config reload failed, keeping previous",
			slog.String("path", r.path), slog.String("error", err.Error()))
		r.mu.Lock()
		r.modTime = info.ModTime()
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.current = cfg
	r.modTime = info.ModTime()
	listeners := append([]func(*Config){}, r.listeners...)
	r.mu.Unlock()

	r.logger.Info("configuration reloaded", slog.String("path", r.path))
	for _, fn := range listeners {
		fn(cfg)
	}
}
