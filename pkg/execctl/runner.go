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
	"os"
	"os/exec"
	"strings"

	"github.com/carverauto/sysconfig/pkg/logger"
)

var commandContext = exec.CommandContext

// CommandError reports a command that ran but exited non-zero, or failed to
// start. ExitCode is -1 when no exit status is available.
type CommandError struct {
	Argv     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited %d: %s",
		strings.Join(e.Argv, " "), e.ExitCode, strings.TrimSpace(e.Output))
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	logger logger.Logger
}

func NewRunner(log logger.Logger) *ExecRunner {
	return &ExecRunner{logger: log}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunWithEnv(ctx, nil, name, args...)
}

func (r *ExecRunner) RunWithEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error) {
	cmd := commandContext(ctx, name, args...) //nolint:gosec

	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		return output, &CommandError{
			Argv:     append([]string{name}, args...),
			ExitCode: exitCode,
			Output:   string(output),
			Err:      err,
		}
	}

	r.logger.Debug().
		Str("command", name).
		Strs("args", args).
		Msg("Command completed")

	return output, nil
}

var _ Runner = (*ExecRunner)(nil)
