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

package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/sysconfig/pkg/cpufreq"
	"github.com/carverauto/sysconfig/pkg/execctl"
	"github.com/carverauto/sysconfig/pkg/hostinfo"
	"github.com/carverauto/sysconfig/pkg/logger"
	"github.com/carverauto/sysconfig/pkg/metrics"
	"github.com/carverauto/sysconfig/pkg/models"
	"github.com/carverauto/sysconfig/pkg/pkgmgr"
	"github.com/carverauto/sysconfig/pkg/render"
	"github.com/carverauto/sysconfig/pkg/tracker"
)

const (
	updateGrubPath = "/usr/sbin/update-grub"
	updateRCDPath  = "/usr/sbin/update-rc.d"

	cpufreqUnit = "cpufrequtils.service"

	// Releases whose cpufrequtils still ships the ondemand initscript
	// (lp#1822774, lp#740127).
	legacyOndemandCodename = "xenial"

	grubDefaultFormat = "Advanced options for Ubuntu>Ubuntu, with Linux %s"
)

// Deps carries the engine's collaborators. Metrics may be nil.
type Deps struct {
	Tracker   ChangeTracker
	Renderer  FileRenderer
	Runner    execctl.Runner
	Services  execctl.ServiceManager
	Installer pkgmgr.Installer
	Prober    hostinfo.Prober
	// Governors reads back the effective per-core scaling governors for
	// status reporting. Optional.
	Governors func(ctx context.Context) (*cpufreq.Snapshot, error)
	Metrics   *metrics.Recorder
	Logger    logger.Logger
	Paths     models.PathsConfig
}

// Engine applies, removes and reports the declared boot configuration.
// Passes are synchronous; callers serialize concurrent processes with the
// state-dir lock.
type Engine struct {
	cfg  *models.DesiredConfig
	deps Deps

	// Resolved once at construction: host capabilities do not change
	// within a process lifetime.
	container      bool
	legacyOndemand bool
}

var (
	_ ChangeTracker = (*tracker.Tracker)(nil)
	_ FileRenderer  = (*render.Renderer)(nil)
)

// New probes host capabilities and builds an engine for the given desired
// configuration.
func New(ctx context.Context, cfg *models.DesiredConfig, deps Deps) (*Engine, error) {
	container, err := deps.Prober.IsContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect container: %w", err)
	}

	codename, err := deps.Prober.DistributionCodename(ctx)
	if err != nil {
		return nil, fmt.Errorf("read distribution codename: %w", err)
	}

	return &Engine{
		cfg:            cfg,
		deps:           deps,
		container:      container,
		legacyOndemand: codename == legacyOndemandCodename && !container,
	}, nil
}

// ApplyGrub rewrites the grub drop-in from the desired configuration and
// records the change. The rewrite is unconditional; identical context yields
// identical bytes, so repeated passes do not churn the file content.
func (e *Engine) ApplyGrub(ctx context.Context) error {
	data := render.GrubContext{
		Hugepages:   e.cfg.Hugepages,
		Hugepagesz:  e.cfg.Hugepagesz,
		RAID:        e.cfg.RAIDAutodetection,
		PTIOff:      !e.cfg.PTIEnabled(),
		IOMMU:       e.cfg.EnableIOMMU,
		ConfigFlags: e.cfg.GrubFlags(),
	}

	if e.cfg.Reservation == models.ReservationIsolCPUs {
		data.CPURange = e.cfg.CPURange
	}

	pin, err := e.kernelPin(ctx)
	if err != nil {
		return err
	}

	data.GrubDefault = pin

	content, err := e.deps.Renderer.RenderGrub(data)
	if err != nil {
		return err
	}

	if err := e.deps.Renderer.WriteFile(e.deps.Paths.GrubConfig, content); err != nil {
		return err
	}

	if err := e.deps.Tracker.RecordChange(ctx, models.DomainGrub); err != nil {
		return err
	}

	e.deps.Metrics.ObserveRewrite(models.DomainGrub)
	e.deps.Logger.Info().Str("path", e.deps.Paths.GrubConfig).Msg("Updated grub configuration")

	return e.regenerateBootloader(ctx)
}

// kernelPin returns the boot-menu default entry pinning the configured
// kernel, or "" when no pin is needed. Once the configured kernel is the
// running kernel the pin disappears, so the file converges.
func (e *Engine) kernelPin(ctx context.Context) (string, error) {
	if e.cfg.KernelVersion == "" {
		return "", nil
	}

	running, err := e.deps.Prober.KernelRelease(ctx)
	if err != nil {
		return "", fmt.Errorf("read running kernel: %w", err)
	}

	if running == e.cfg.KernelVersion {
		return "", nil
	}

	return fmt.Sprintf(grubDefaultFormat, e.cfg.KernelVersion), nil
}

// regenerateBootloader runs update-grub when the configuration asks for it.
// Containers have no bootloader, so the call is skipped there.
func (e *Engine) regenerateBootloader(ctx context.Context) error {
	if !e.cfg.UpdateGrub || e.container {
		return nil
	}

	if _, err := e.deps.Runner.Run(ctx, updateGrubPath); err != nil {
		return fmt.Errorf("update-grub: %w", err)
	}

	e.deps.Logger.Debug().Msg("Ran update-grub to apply grub configuration updates")

	return nil
}

// ApplySystemd rewrites the systemd manager limits file and records the
// change.
func (e *Engine) ApplySystemd(ctx context.Context) error {
	data := render.SystemdContext{ConfigFlags: e.cfg.SystemdFlags()}

	if e.cfg.Reservation == models.ReservationAffinity {
		data.CPUAffinity = e.cfg.CPURange
	}

	content, err := e.deps.Renderer.RenderSystemd(data)
	if err != nil {
		return err
	}

	if err := e.deps.Renderer.WriteFile(e.deps.Paths.SystemdConfig, content); err != nil {
		return err
	}

	if err := e.deps.Tracker.RecordChange(ctx, models.DomainSystemd); err != nil {
		return err
	}

	e.deps.Metrics.ObserveRewrite(models.DomainSystemd)
	e.deps.Logger.Info().Str("path", e.deps.Paths.SystemdConfig).Msg("Updated systemd configuration")

	return nil
}

// ApplyCPUFreq rewrites the cpufrequtils defaults, records the change, and
// restarts the frequency-scaling service. An invalid governor aborts before
// any side effect.
func (e *Engine) ApplyCPUFreq(ctx context.Context) error {
	if err := e.governorGate(); err != nil {
		return err
	}

	content, err := e.deps.Renderer.RenderCPUFreq(render.CPUFreqContext{Governor: e.cfg.Governor})
	if err != nil {
		return err
	}

	if err := e.deps.Renderer.WriteFile(e.deps.Paths.CPUFreqConfig, content); err != nil {
		return err
	}

	if err := e.deps.Tracker.RecordChange(ctx, models.DomainCPUFreq); err != nil {
		return err
	}

	e.deps.Metrics.ObserveRewrite(models.DomainCPUFreq)
	e.deps.Logger.Info().Str("path", e.deps.Paths.CPUFreqConfig).Msg("Updated cpufreq configuration")

	if err := e.toggleLegacyOndemand(ctx, e.cfg.Governor != ""); err != nil {
		return err
	}

	return e.restartCPUFreqService(ctx)
}

func (e *Engine) governorGate() error {
	switch e.cfg.Governor {
	case "", models.GovernorPowersave, models.GovernorPerformance:
		return nil
	}

	return &models.ValidationError{Violations: []models.Violation{{
		Field:   "governor",
		Value:   e.cfg.Governor,
		Allowed: []string{"", models.GovernorPowersave, models.GovernorPerformance},
	}}}
}

// toggleLegacyOndemand disables the ondemand initscript while a governor is
// pinned and re-enables it when the governor is cleared. Only legacy
// releases outside containers carry the initscript.
func (e *Engine) toggleLegacyOndemand(ctx context.Context, governorSet bool) error {
	if !e.legacyOndemand {
		return nil
	}

	action := "defaults"
	if governorSet {
		action = "remove"
	}

	if _, err := e.deps.Runner.Run(ctx, updateRCDPath, "-f", "ondemand", action); err != nil {
		return fmt.Errorf("update-rc.d ondemand %s: %w", action, err)
	}

	e.deps.Logger.Debug().Str("action", action).Msg("Toggled legacy ondemand initscript")

	return nil
}

func (e *Engine) restartCPUFreqService(ctx context.Context) error {
	if err := e.deps.Services.RestartService(ctx, cpufreqUnit); err != nil {
		return fmt.Errorf("restart cpufrequtils: %w", err)
	}

	return nil
}

// InstallKernel installs the configured kernel image and modules-extra
// packages. Nothing happens when no version is configured or the configured
// version is already running.
func (e *Engine) InstallKernel(ctx context.Context) error {
	if e.cfg.KernelVersion == "" {
		return nil
	}

	running, err := e.deps.Prober.KernelRelease(ctx)
	if err != nil {
		return fmt.Errorf("read running kernel: %w", err)
	}

	if running == e.cfg.KernelVersion {
		e.deps.Logger.Debug().
			Str("kernel", running).
			Msg("Configured kernel already running")

		return nil
	}

	if err := e.deps.Installer.Install(ctx, pkgmgr.KernelPackages(e.cfg.KernelVersion)...); err != nil {
		return fmt.Errorf("install kernel %s: %w", e.cfg.KernelVersion, err)
	}

	if err := e.deps.Tracker.RecordChange(ctx, models.DomainKernel); err != nil {
		return err
	}

	e.deps.Logger.Info().
		Str("kernel", e.cfg.KernelVersion).
		Msg("Installed configured kernel packages")

	return nil
}

// RemoveGrub deletes the grub drop-in. A missing file is a silent no-op and
// nothing is recorded either way; only the deletion triggers bootloader
// regeneration.
func (e *Engine) RemoveGrub(ctx context.Context) error {
	removed, err := e.deps.Renderer.RemoveFile(e.deps.Paths.GrubConfig)
	if err != nil {
		return err
	}

	if !removed {
		e.deps.Logger.Debug().
			Str("path", e.deps.Paths.GrubConfig).
			Msg("No grub configuration to remove")

		return nil
	}

	e.deps.Logger.Info().Str("path", e.deps.Paths.GrubConfig).Msg("Removed grub configuration")

	return e.regenerateBootloader(ctx)
}

// RemoveSystemd restores the systemd limits file to its unmanaged form and
// records the change.
func (e *Engine) RemoveSystemd(ctx context.Context) error {
	content, err := e.deps.Renderer.RenderSystemd(render.SystemdContext{})
	if err != nil {
		return err
	}

	if err := e.deps.Renderer.WriteFile(e.deps.Paths.SystemdConfig, content); err != nil {
		return err
	}

	if err := e.deps.Tracker.RecordChange(ctx, models.DomainSystemd); err != nil {
		return err
	}

	e.deps.Metrics.ObserveRewrite(models.DomainSystemd)
	e.deps.Logger.Info().Str("path", e.deps.Paths.SystemdConfig).Msg("Removed systemd configuration")

	return nil
}

// RemoveCPUFreq restores the cpufrequtils defaults, re-enables the legacy
// ondemand initscript where present, records the change, and restarts the
// service.
func (e *Engine) RemoveCPUFreq(ctx context.Context) error {
	content, err := e.deps.Renderer.RenderCPUFreq(render.CPUFreqContext{})
	if err != nil {
		return err
	}

	if err := e.deps.Renderer.WriteFile(e.deps.Paths.CPUFreqConfig, content); err != nil {
		return err
	}

	if err := e.deps.Tracker.RecordChange(ctx, models.DomainCPUFreq); err != nil {
		return err
	}

	e.deps.Metrics.ObserveRewrite(models.DomainCPUFreq)
	e.deps.Logger.Info().Str("path", e.deps.Paths.CPUFreqConfig).Msg("Removed cpufreq configuration")

	if err := e.toggleLegacyOndemand(ctx, false); err != nil {
		return err
	}

	return e.restartCPUFreqService(ctx)
}

// ApplyAll runs one full apply pass: kernel, grub, systemd, cpufreq. The
// desired configuration must validate, and containers are rejected unless
// enable_container is set. The first domain error halts the pass.
func (e *Engine) ApplyAll(ctx context.Context) error {
	if err := e.cfg.Validate(); err != nil {
		e.deps.Metrics.ObservePass(metrics.ResultInvalid)

		return err
	}

	if e.container && !e.cfg.EnableContainer {
		e.deps.Metrics.ObservePass(metrics.ResultError)

		return ErrContainerUnsupported
	}

	runLog := e.deps.Logger.With().Str("run_id", uuid.New().String()).Logger()
	runLog.Info().Msg("Starting apply pass")

	steps := []struct {
		domain string
		fn     func(context.Context) error
	}{
		{models.DomainKernel, e.InstallKernel},
		{models.DomainGrub, e.ApplyGrub},
		{models.DomainSystemd, e.ApplySystemd},
		{models.DomainCPUFreq, e.ApplyCPUFreq},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			e.deps.Metrics.ObservePass(metrics.ResultError)
			runLog.Error().Err(err).Str("domain", step.domain).Msg("Apply pass failed")

			return fmt.Errorf("apply %s: %w", step.domain, err)
		}
	}

	e.deps.Metrics.ObservePass(metrics.ResultSuccess)
	runLog.Info().Msg("Apply pass complete")

	return nil
}

// RemoveAll reverses the managed domains: grub, systemd, cpufreq. Kernel
// packages are never uninstalled.
func (e *Engine) RemoveAll(ctx context.Context) error {
	if err := e.cfg.Validate(); err != nil {
		e.deps.Metrics.ObservePass(metrics.ResultInvalid)

		return err
	}

	runLog := e.deps.Logger.With().Str("run_id", uuid.New().String()).Logger()
	runLog.Info().Msg("Starting remove pass")

	steps := []struct {
		domain string
		fn     func(context.Context) error
	}{
		{models.DomainGrub, e.RemoveGrub},
		{models.DomainSystemd, e.RemoveSystemd},
		{models.DomainCPUFreq, e.RemoveCPUFreq},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			e.deps.Metrics.ObservePass(metrics.ResultError)
			runLog.Error().Err(err).Str("domain", step.domain).Msg("Remove pass failed")

			return fmt.Errorf("remove %s: %w", step.domain, err)
		}
	}

	e.deps.Metrics.ObservePass(metrics.ResultSuccess)
	runLog.Info().Msg("Remove pass complete")

	return nil
}

// Status reports which domains changed since the current boot and whether a
// reboot is required to pick them up. Governor readback failures degrade to
// a warning; they never fail the query.
func (e *Engine) Status(ctx context.Context) (*models.Status, error) {
	bootTime, err := e.deps.Prober.BootTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute boot time: %w", err)
	}

	changed, err := e.deps.Tracker.ChangedSinceBoot(ctx, models.Domains())
	if err != nil {
		return nil, err
	}

	running, err := e.deps.Prober.KernelRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("read running kernel: %w", err)
	}

	status := &models.Status{
		RebootRequired:   len(changed) > 0,
		ChangedDomains:   changed,
		BootTime:         bootTime,
		KernelRunning:    running,
		KernelConfigured: e.cfg.KernelVersion,
		CheckedAt:        time.Now().UTC(),
	}

	if e.deps.Governors != nil {
		snapshot, err := e.deps.Governors(ctx)
		if err != nil {
			e.deps.Logger.Warn().Err(err).Msg("Governor readback unavailable")
		} else {
			status.Governors = snapshot.Governors()
		}
	}

	e.deps.Metrics.SetRebootRequired(status.RebootRequired)

	return status, nil
}
