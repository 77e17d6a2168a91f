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

//go:generate mockgen -destination=mock_hostinfo.go -package=hostinfo github.com/carverauto/sysconfig/pkg/hostinfo Prober

// Package hostinfo answers questions about the host the agent manages:
// boot time, running kernel, container detection and distribution release.
package hostinfo

import (
	"context"
	"time"
)

// Prober exposes host introspection to the reconciliation engine.
type Prober interface {
	// Uptime returns how long the host has been up.
	Uptime(ctx context.Context) (time.Duration, error)

	// BootTime derives the boot instant from current uptime. It is computed
	// fresh on every call, never cached.
	BootTime(ctx context.Context) (time.Time, error)

	// KernelRelease returns the running kernel release, e.g. "5.15.0-50-generic".
	KernelRelease(ctx context.Context) (string, error)

	// IsContainer reports whether the agent runs inside a container.
	IsContainer(ctx context.Context) (bool, error)

	// DistributionCodename returns the distribution release codename, e.g. "xenial".
	DistributionCodename(ctx context.Context) (string, error)
}
