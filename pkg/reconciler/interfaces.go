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

// Package reconciler drives the host toward the declared boot configuration,
// one domain at a time, and reports what changed since the current boot.
package reconciler

import (
	"context"

	"github.com/carverauto/sysconfig/pkg/render"
)

//go:generate mockgen -destination=mock_reconciler.go -package=reconciler github.com/carverauto/sysconfig/pkg/reconciler ChangeTracker,FileRenderer

// ChangeTracker persists per-domain change instants and evaluates them
// against the current boot.
type ChangeTracker interface {
	RecordChange(ctx context.Context, domain string) error
	ChangedSinceBoot(ctx context.Context, domains []string) ([]string, error)
}

// FileRenderer renders the managed configuration files and replaces them on
// disk.
type FileRenderer interface {
	RenderGrub(data render.GrubContext) ([]byte, error)
	RenderSystemd(data render.SystemdContext) ([]byte, error)
	RenderCPUFreq(data render.CPUFreqContext) ([]byte, error)
	WriteFile(path string, content []byte) error
	RemoveFile(path string) (bool, error)
}
