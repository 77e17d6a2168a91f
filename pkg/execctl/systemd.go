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

package execctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/carverauto/sysconfig/pkg/logger"
)

var errUnitRestartFailed = errors.New("unit restart failed")

// SystemdManager restarts units over the systemd D-Bus API and waits for the
// queued job to finish.
type SystemdManager struct {
	logger logger.Logger
}

func NewSystemdManager(log logger.Logger) *SystemdManager {
	return &SystemdManager{logger: log}
}

func (m *SystemdManager) RestartService(ctx context.Context, unit string) error {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	results := make(chan string, 1)

	if _, err := conn.RestartUnitContext(ctx, unit, "replace", results); err != nil {
		return fmt.Errorf("restart %s: %w", unit, err)
	}

	select {
	case result := <-results:
		if result != "done" {
			return fmt.Errorf("%w: %s finished with %q", errUnitRestartFailed, unit, result)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	m.logger.Info().Str("unit", unit).Msg("Restarted service")

	return nil
}

var _ ServiceManager = (*SystemdManager)(nil)
