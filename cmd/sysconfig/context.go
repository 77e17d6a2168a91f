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
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/carverauto/sysconfig/pkg/config"
	"github.com/carverauto/sysconfig/pkg/cpufreq"
	"github.com/carverauto/sysconfig/pkg/execctl"
	"github.com/carverauto/sysconfig/pkg/hostinfo"
	"github.com/carverauto/sysconfig/pkg/kv"
	"github.com/carverauto/sysconfig/pkg/logger"
	"github.com/carverauto/sysconfig/pkg/metrics"
	"github.com/carverauto/sysconfig/pkg/models"
	"github.com/carverauto/sysconfig/pkg/pkgmgr"
	"github.com/carverauto/sysconfig/pkg/reconciler"
	"github.com/carverauto/sysconfig/pkg/render"
	"github.com/carverauto/sysconfig/pkg/tracker"
)

const lockFileName = "sysconfig.lock"

var errLockHeld = errors.New("another sysconfig process holds the state lock")

// commandContext carries the persistent flags shared by all subcommands.
type commandContext struct {
	configFlag   *string
	stateDirFlag *string
}

func newCommandContext(configFlag, stateDirFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		stateDirFlag: stateDirFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil || strings.TrimSpace(*c.configFlag) == "" {
		return defaultConfigPath
	}

	return *c.configFlag
}

func (c *commandContext) stateDir() string {
	if c.stateDirFlag == nil || strings.TrimSpace(*c.stateDirFlag) == "" {
		return defaultStateDir
	}

	return *c.stateDirFlag
}

// acquireLock takes the state-dir flock that serializes mutating passes
// across processes. The returned release function is safe to call once.
func (c *commandContext) acquireLock() (func(), error) {
	dir := c.stateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", dir, err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	lock := flock.New(lockPath)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock %s: %w", lockPath, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w (%s)", errLockHeld, lockPath)
	}

	return func() { _ = lock.Unlock() }, nil
}

// runtime bundles the loaded configuration with the assembled reconciler
// and the store backing its change tracker.
type runtime struct {
	cfg    *models.AgentConfig
	log    logger.Logger
	store  kv.KVStore
	engine *reconciler.Engine
}

// buildRuntime loads and validates the configuration, then wires the
// reconciler with live host collaborators. The recorder may be shared
// across rebuilds in watch mode.
func (c *commandContext) buildRuntime(ctx context.Context, recorder *metrics.Recorder) (*runtime, error) {
	// The real logger configuration lives in the file being loaded, so
	// config loading itself logs through a stderr bootstrap logger.
	bootLog, err := logger.New(ctx, &logger.Config{Level: "info", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("create bootstrap logger: %w", err)
	}

	var cfg models.AgentConfig
	if err := config.NewService(bootLog).LoadAndValidate(ctx, c.configPath(), &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logging
	if logCfg == nil {
		logCfg = &logger.Config{Level: "info", Output: "stdout"}
	}

	log, err := logger.New(ctx, logCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	store, err := kv.NewStore(ctx, &cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	renderer, err := render.New(log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	prober := hostinfo.NewHostProber()
	runner := execctl.NewRunner(log)

	engine, err := reconciler.New(ctx, &cfg.Desired, reconciler.Deps{
		Tracker:   tracker.New(store, prober, log),
		Renderer:  renderer,
		Runner:    runner,
		Services:  execctl.NewSystemdManager(log),
		Installer: pkgmgr.NewAptInstaller(runner, log),
		Prober:    prober,
		Governors: cpufreq.Collect,
		Metrics:   recorder,
		Logger:    log,
		Paths:     cfg.Paths,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build reconciler: %w", err)
	}

	return &runtime{cfg: &cfg, log: log, store: store, engine: engine}, nil
}

func (r *runtime) Close() error {
	err := r.store.Close()

	if shutdownErr := logger.Shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	return err
}
