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

// Package models holds the desired-state configuration and status types.
package models

import (
	"strings"
)

// Configuration domains tracked against boot time.
const (
	DomainGrub    = "grub"
	DomainSystemd = "systemd"
	DomainCPUFreq = "cpufreq"
	DomainKernel  = "kernel"
)

// Domains returns all tracked domains in reporting order.
func Domains() []string {
	return []string{DomainGrub, DomainSystemd, DomainCPUFreq, DomainKernel}
}

// Reservation modes select the CPU-isolation strategy.
const (
	ReservationOff      = "off"
	ReservationIsolCPUs = "isolcpus"
	ReservationAffinity = "affinity"
)

// RAID autodetection modes.
const (
	RAIDNoAutodetect  = "noautodetect"
	RAIDPartitionable = "partitionable"
)

// CPU frequency governors.
const (
	GovernorPowersave   = "powersave"
	GovernorPerformance = "performance"
)

var (
	allowedReservations = []string{ReservationOff, ReservationIsolCPUs, ReservationAffinity}
	allowedRAIDModes    = []string{"", RAIDNoAutodetect, RAIDPartitionable}
	allowedGovernors    = []string{"", GovernorPowersave, GovernorPerformance}
)

// DesiredConfig declares the target boot configuration for a host. Unset or
// empty values mean "no explicit directive, do not emit".
type DesiredConfig struct {
	// Reservation selects the CPU isolation strategy: "off", "isolcpus"
	// (kernel boot parameter) or "affinity" (systemd CPUAffinity).
	Reservation string `json:"reservation,omitempty" yaml:"reservation,omitempty" toml:"reservation,omitempty"`
	// CPURange applies under isolcpus or affinity reservation, e.g. "0-10,24-34".
	CPURange   string `json:"cpu_range,omitempty" yaml:"cpu_range,omitempty" toml:"cpu_range,omitempty"`
	Hugepages  string `json:"hugepages,omitempty" yaml:"hugepages,omitempty" toml:"hugepages,omitempty"`
	Hugepagesz string `json:"hugepagesz,omitempty" yaml:"hugepagesz,omitempty" toml:"hugepagesz,omitempty"`
	// RAIDAutodetection is "" (keep default), "noautodetect" or "partitionable".
	RAIDAutodetection string `json:"raid_autodetection,omitempty" yaml:"raid_autodetection,omitempty" toml:"raid_autodetection,omitempty"`
	// EnablePTI defaults to true; only an explicit false emits pti=off.
	EnablePTI   *bool `json:"enable_pti,omitempty" yaml:"enable_pti,omitempty" toml:"enable_pti,omitempty"`
	EnableIOMMU bool  `json:"enable_iommu,omitempty" yaml:"enable_iommu,omitempty" toml:"enable_iommu,omitempty"`
	// GrubConfigFlags carries free-form grub variables, format "key1=value1,key2=value2".
	GrubConfigFlags string `json:"grub_config_flags,omitempty" yaml:"grub_config_flags,omitempty" toml:"grub_config_flags,omitempty"`
	// SystemdConfigFlags carries free-form [Manager] settings, same format.
	SystemdConfigFlags string `json:"systemd_config_flags,omitempty" yaml:"systemd_config_flags,omitempty" toml:"systemd_config_flags,omitempty"`
	// KernelVersion is an exact kernel release to install and pin, e.g. "5.15.0-99-generic".
	KernelVersion string `json:"kernel_version,omitempty" yaml:"kernel_version,omitempty" toml:"kernel_version,omitempty"`
	// UpdateGrub triggers bootloader regeneration after grub rewrites.
	UpdateGrub bool `json:"update_grub,omitempty" yaml:"update_grub,omitempty" toml:"update_grub,omitempty"`
	// Governor is "" (unmanaged), "powersave" or "performance".
	Governor string `json:"governor,omitempty" yaml:"governor,omitempty" toml:"governor,omitempty"`
	// EnableContainer permits apply inside containers (files render, host
	// commands are skipped).
	EnableContainer bool `json:"enable_container,omitempty" yaml:"enable_container,omitempty" toml:"enable_container,omitempty"`
}

// Validate checks every enumerated field and returns a ValidationError
// listing all violations, or nil. An empty reservation defaults to "off".
func (c *DesiredConfig) Validate() error {
	c.setDefaults()

	var violations []Violation

	if !containsString(allowedReservations, c.Reservation) {
		violations = append(violations, Violation{
			Field:   "reservation",
			Value:   c.Reservation,
			Allowed: allowedReservations,
		})
	}

	if !containsString(allowedRAIDModes, c.RAIDAutodetection) {
		violations = append(violations, Violation{
			Field:   "raid_autodetection",
			Value:   c.RAIDAutodetection,
			Allowed: allowedRAIDModes,
		})
	}

	if !containsString(allowedGovernors, c.Governor) {
		violations = append(violations, Violation{
			Field:   "governor",
			Value:   c.Governor,
			Allowed: allowedGovernors,
		})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	return nil
}

func (c *DesiredConfig) setDefaults() {
	if c.Reservation == "" {
		c.Reservation = ReservationOff
	}
}

// PTIEnabled reports whether page-table isolation stays on. Absent means on.
func (c *DesiredConfig) PTIEnabled() bool {
	return c.EnablePTI == nil || *c.EnablePTI
}

// GrubFlags returns the parsed free-form grub flags.
func (c *DesiredConfig) GrubFlags() []ConfigFlag {
	return ParseConfigFlags(c.GrubConfigFlags)
}

// SystemdFlags returns the parsed free-form systemd flags.
func (c *DesiredConfig) SystemdFlags() []ConfigFlag {
	return ParseConfigFlags(c.SystemdConfigFlags)
}

// ConfigFlag is one free-form key=value pair, order-preserving.
type ConfigFlag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseConfigFlags parses "key1=value1,key2=value2" into ordered pairs.
// Spaces are stripped, pairs without "=" are skipped, and a value keeps only
// the segment before any further "=".
func ParseConfigFlags(configFlags string) []ConfigFlag {
	configFlags = strings.ReplaceAll(configFlags, " ", "")

	var flags []ConfigFlag

	index := make(map[string]int)

	for _, pair := range strings.Split(configFlags, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) < 2 {
			continue
		}

		key, value := parts[0], parts[1]

		// Repeated keys overwrite in place, keeping first-seen order.
		if at, seen := index[key]; seen {
			flags[at].Value = value
			continue
		}

		index[key] = len(flags)
		flags = append(flags, ConfigFlag{Key: key, Value: value})
	}

	return flags
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}
