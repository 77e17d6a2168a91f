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

package models

import (
	"time"

	"github.com/carverauto/sysconfig/pkg/kv"
	"github.com/carverauto/sysconfig/pkg/logger"
)

// Default target files, fully owned and overwritten by the agent.
const (
	DefaultGrubConfigPath    = "/etc/default/grub.d/90-sysconfig.cfg"
	DefaultSystemdConfigPath = "/etc/systemd/system.conf"
	DefaultCPUFreqConfigPath = "/etc/default/cpufrequtils"
)

const defaultWatchDebounce = 2 * time.Second

// PathsConfig overrides the rendered file targets, mainly for tests.
type PathsConfig struct {
	GrubConfig    string `json:"grub_config,omitempty" yaml:"grub_config,omitempty" toml:"grub_config,omitempty"`
	SystemdConfig string `json:"systemd_config,omitempty" yaml:"systemd_config,omitempty" toml:"systemd_config,omitempty"`
	CPUFreqConfig string `json:"cpufreq_config,omitempty" yaml:"cpufreq_config,omitempty" toml:"cpufreq_config,omitempty"`
}

// AgentConfig represents the configuration for a sysconfig agent instance.
type AgentConfig struct {
	Desired DesiredConfig  `json:"desired" yaml:"desired" toml:"desired"`
	Paths   PathsConfig    `json:"paths,omitempty" yaml:"paths,omitempty" toml:"paths,omitempty"`
	Store   kv.Config      `json:"store,omitempty" yaml:"store,omitempty" toml:"store,omitempty"`
	Logging *logger.Config `json:"logging,omitempty" yaml:"logging,omitempty" toml:"logging,omitempty"`
	// ListenAddr serves /healthz, /status and /metrics in watch mode, e.g. ":9261".
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" toml:"listen_addr,omitempty"`
	// WatchDebounce delays re-apply after a config file change.
	WatchDebounce Duration `json:"watch_debounce,omitempty" yaml:"watch_debounce,omitempty" toml:"watch_debounce,omitempty"`
}

// Validate validates the desired state and the store settings, and fills
// path defaults.
func (c *AgentConfig) Validate() error {
	if err := c.Desired.Validate(); err != nil {
		return err
	}

	if err := c.Store.Validate(); err != nil {
		return err
	}

	c.setDefaults()

	return nil
}

func (c *AgentConfig) setDefaults() {
	if c.Paths.GrubConfig == "" {
		c.Paths.GrubConfig = DefaultGrubConfigPath
	}

	if c.Paths.SystemdConfig == "" {
		c.Paths.SystemdConfig = DefaultSystemdConfigPath
	}

	if c.Paths.CPUFreqConfig == "" {
		c.Paths.CPUFreqConfig = DefaultCPUFreqConfigPath
	}

	if c.WatchDebounce == 0 {
		c.WatchDebounce = Duration(defaultWatchDebounce)
	}
}
