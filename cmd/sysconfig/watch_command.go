/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/sysconfig/pkg/metrics"
	"github.com/carverauto/sysconfig/pkg/models"
)

const httpShutdownTimeout = 5 * time.Second

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Apply continuously, re-applying when the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			svc := &watchService{
				cmdCtx:   ctx,
				recorder: metrics.New(),
			}

			return svc.run(cmd.Context())
		},
	}
}

// watchService applies the configuration, watches the config file for
// changes, and serves status and metrics over HTTP until signalled.
type watchService struct {
	cmdCtx   *commandContext
	recorder *metrics.Recorder

	mu     sync.RWMutex
	rt     *runtime
	status *models.Status
}

func (s *watchService) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := s.cmdCtx.buildRuntime(ctx, s.recorder)
	if err != nil {
		return err
	}

	s.setRuntime(rt)
	defer func() { _ = s.runtime().Close() }()

	s.applyAndRefresh(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory rather than the file: editors and config
	// management tools replace the file by rename, which drops a watch
	// set on the file itself.
	configDir := filepath.Dir(s.cmdCtx.configPath())
	if err := watcher.Add(configDir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", configDir, err)
	}

	addr := rt.cfg.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(s.currentStatus, s.recorder.Handler()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.watchLoop(gctx, watcher)
		return nil
	})

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	s.runtime().log.Info().
		Str("config", s.cmdCtx.configPath()).
		Str("listen_addr", addr).
		Msg("Watching configuration")

	return g.Wait()
}

func (s *watchService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	debounceInterval := time.Duration(s.runtime().cfg.WatchDebounce)
	debounce := newDebouncer(debounceInterval, func() { s.reload(ctx) })

	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if !configFileEvent(event, s.cmdCtx.configPath()) {
				continue
			}

			s.runtime().log.Debug().
				Str("event", event.Op.String()).
				Str("path", event.Name).
				Msg("Config file event")
			debounce.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			s.runtime().log.Error().Err(err).Msg("Config watcher error")
		}
	}
}

// reload rebuilds the runtime from the changed file and re-applies. A config
// that fails to load or validate leaves the previous runtime in place.
func (s *watchService) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.runtime().log.Info().
		Str("path", s.cmdCtx.configPath()).
		Msg("Configuration changed, re-applying")

	rt, err := s.cmdCtx.buildRuntime(ctx, s.recorder)
	if err != nil {
		s.runtime().log.Error().Err(err).Msg("Reload failed, keeping previous configuration")
		return
	}

	s.setRuntime(rt)
	s.applyAndRefresh(ctx)
}

// applyAndRefresh runs a full pass and snapshots the resulting status for
// the HTTP endpoint. Pass failures keep the service alive.
func (s *watchService) applyAndRefresh(ctx context.Context) {
	rt := s.runtime()

	if err := rt.engine.ApplyAll(ctx); err != nil {
		rt.log.Error().Err(err).Msg("Apply pass failed")
	}

	st, err := rt.engine.Status(ctx)
	if err != nil {
		rt.log.Error().Err(err).Msg("Status refresh failed")
		return
	}

	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *watchService) currentStatus() *models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

func (s *watchService) runtime() *runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rt
}

func (s *watchService) setRuntime(rt *runtime) {
	s.mu.Lock()
	previous := s.rt
	s.rt = rt
	s.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
}

// configFileEvent reports whether the filesystem event concerns the watched
// config file. Removes count: an atomic replace shows up as remove+create.
func configFileEvent(event fsnotify.Event, configPath string) bool {
	if filepath.Base(event.Name) != filepath.Base(configPath) {
		return false
	}

	const ops = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

	return event.Op&ops != 0
}

// debouncer coalesces bursts of triggers into one callback after a quiet
// interval.
type debouncer struct {
	interval time.Duration
	fn       func()

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(interval time.Duration, fn func()) *debouncer {
	return &debouncer{interval: interval, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
