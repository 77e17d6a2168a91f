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

// Package execctl runs host commands and restarts system services on behalf
// of the reconciliation engine.
package execctl

import "context"

//go:generate mockgen -destination=mock_execctl.go -package=execctl github.com/carverauto/sysconfig/pkg/execctl Runner,ServiceManager

// Runner executes a host command and returns its combined output. A non-zero
// exit produces a *CommandError carrying argv, exit code, and output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunWithEnv appends extraEnv ("KEY=value" pairs) to the inherited
	// environment for this invocation only.
	RunWithEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error)
}

// ServiceManager restarts system services by unit name.
type ServiceManager interface {
	RestartService(ctx context.Context, unit string) error
}
