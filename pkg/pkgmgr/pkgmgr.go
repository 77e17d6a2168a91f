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

// Package pkgmgr installs host packages through apt.
package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/carverauto/sysconfig/pkg/execctl"
	"github.com/carverauto/sysconfig/pkg/logger"
)

//go:generate mockgen -destination=mock_pkgmgr.go -package=pkgmgr github.com/carverauto/sysconfig/pkg/pkgmgr Installer

// Installer installs host packages by name.
type Installer interface {
	Install(ctx context.Context, packages ...string) error
}

// KernelPackages returns the image and modules-extra package names for a
// kernel version.
func KernelPackages(version string) []string {
	return []string{
		"linux-image-" + version,
		"linux-modules-extra-" + version,
	}
}

// aptEnv keeps apt from prompting during unattended runs.
var aptEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// AptInstaller refreshes the package index and installs through apt-get.
type AptInstaller struct {
	runner execctl.Runner
	logger logger.Logger
}

func NewAptInstaller(runner execctl.Runner, log logger.Logger) *AptInstaller {
	return &AptInstaller{runner: runner, logger: log}
}

func (a *AptInstaller) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}

	if _, err := a.runner.RunWithEnv(ctx, aptEnv, "apt-get", "update"); err != nil {
		return fmt.Errorf("apt-get update: %w", err)
	}

	args := append([]string{"install", "-y"}, packages...)
	if _, err := a.runner.RunWithEnv(ctx, aptEnv, "apt-get", args...); err != nil {
		return fmt.Errorf("apt-get install %s: %w", strings.Join(packages, " "), err)
	}

	a.logger.Info().Strs("packages", packages).Msg("Installed packages")

	return nil
}

var _ Installer = (*AptInstaller)(nil)
