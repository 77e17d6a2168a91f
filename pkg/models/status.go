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
)

// Status reports whether the host needs a reboot to pick up applied changes.
type Status struct {
	RebootRequired bool `json:"reboot_required"`
	// ChangedDomains lists domains applied after the current boot, in
	// Domains() order.
	ChangedDomains   []string  `json:"changed_domains"`
	BootTime         time.Time `json:"boot_time"`
	KernelRunning    string    `json:"kernel_running"`
	KernelConfigured string    `json:"kernel_configured,omitempty"`
	// Governors maps CPU index to the effective scaling governor, when
	// cpufreq sysfs is available.
	Governors map[int]string `json:"governors,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}
