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

package hostinfo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

const defaultOSReleasePath = "/etc/os-release"

// containerSystems are virtualization systems without their own kernel or
// bootloader.
var containerSystems = map[string]struct{}{
	"lxc":            {},
	"lxc-libvirt":    {},
	"docker":         {},
	"podman":         {},
	"openvz":         {},
	"containerd":     {},
	"rkt":            {},
	"systemd-nspawn": {},
}

var (
	uptimeWithContext         = host.UptimeWithContext
	kernelVersionWithContext  = host.KernelVersionWithContext
	virtualizationWithContext = host.VirtualizationWithContext
	nowFunc                   = time.Now
)

// HostProber implements Prober against the local host via gopsutil and
// /etc/os-release.
type HostProber struct {
	osReleasePath string
}

// NewHostProber creates a prober for the local host.
func NewHostProber() *HostProber {
	return &HostProber{osReleasePath: defaultOSReleasePath}
}

func (*HostProber) Uptime(ctx context.Context) (time.Duration, error) {
	seconds, err := uptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read host uptime: %w", err)
	}

	return time.Duration(seconds) * time.Second, nil
}

func (p *HostProber) BootTime(ctx context.Context) (time.Time, error) {
	uptime, err := p.Uptime(ctx)
	if err != nil {
		return time.Time{}, err
	}

	return nowFunc().UTC().Add(-uptime), nil
}

func (*HostProber) KernelRelease(ctx context.Context) (string, error) {
	release, err := kernelVersionWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read kernel release: %w", err)
	}

	return release, nil
}

func (*HostProber) IsContainer(ctx context.Context) (bool, error) {
	system, role, err := virtualizationWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to detect virtualization: %w", err)
	}

	if role != "guest" {
		return false, nil
	}

	_, isContainer := containerSystems[system]

	return isContainer, nil
}

func (p *HostProber) DistributionCodename(_ context.Context) (string, error) {
	data, err := os.ReadFile(p.osReleasePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p.osReleasePath, err)
	}

	return parseOSReleaseCodename(string(data)), nil
}

// parseOSReleaseCodename scans os-release content for VERSION_CODENAME,
// falling back to UBUNTU_CODENAME. Missing keys yield "".
func parseOSReleaseCodename(content string) string {
	var ubuntuCodename string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		value = strings.Trim(value, `"`)

		switch key {
		case "VERSION_CODENAME":
			if value != "" {
				return value
			}
		case "UBUNTU_CODENAME":
			ubuntuCodename = value
		}
	}

	return ubuntuCodename
}

var _ Prober = (*HostProber)(nil)
