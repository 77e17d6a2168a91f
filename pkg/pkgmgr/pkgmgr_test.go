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

package pkgmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sysconfig/pkg/execctl"
	"github.com/carverauto/sysconfig/pkg/logger"
)

type recordedCall struct {
	env  []string
	argv []string
}

type fakeRunner struct {
	calls   []recordedCall
	failOn  string
	failErr error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.RunWithEnv(ctx, nil, name, args...)
}

func (f *fakeRunner) RunWithEnv(_ context.Context, env []string, name string, args ...string) ([]byte, error) {
	argv := append([]string{name}, args...)
	f.calls = append(f.calls, recordedCall{env: env, argv: argv})

	if f.failOn != "" && len(args) > 0 && args[0] == f.failOn {
		return nil, f.failErr
	}

	return nil, nil
}

var _ execctl.Runner = (*fakeRunner)(nil)

func TestKernelPackages(t *testing.T) {
	assert.Equal(t,
		[]string{"linux-image-5.15.0-91-generic", "linux-modules-extra-5.15.0-91-generic"},
		KernelPackages("5.15.0-91-generic"))
}

func TestInstallUpdatesThenInstalls(t *testing.T) {
	runner := &fakeRunner{}
	installer := NewAptInstaller(runner, logger.NewTestLogger())

	err := installer.Install(context.Background(),
		"linux-image-5.15.0-91-generic", "linux-modules-extra-5.15.0-91-generic")
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"apt-get", "update"}, runner.calls[0].argv)
	assert.Equal(t, []string{
		"apt-get", "install", "-y",
		"linux-image-5.15.0-91-generic", "linux-modules-extra-5.15.0-91-generic",
	}, runner.calls[1].argv)

	for _, call := range runner.calls {
		assert.Contains(t, call.env, "DEBIAN_FRONTEND=noninteractive")
	}
}

func TestInstallNoPackagesIsNoop(t *testing.T) {
	runner := &fakeRunner{}
	installer := NewAptInstaller(runner, logger.NewTestLogger())

	require.NoError(t, installer.Install(context.Background()))
	assert.Empty(t, runner.calls)
}

func TestInstallAbortsWhenUpdateFails(t *testing.T) {
	runner := &fakeRunner{failOn: "update", failErr: errors.New("mirror unreachable")}
	installer := NewAptInstaller(runner, logger.NewTestLogger())

	err := installer.Install(context.Background(), "linux-image-5.15.0-91-generic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror unreachable")

	// No install attempt after a failed index refresh.
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"apt-get", "update"}, runner.calls[0].argv)
}

func TestInstallErrorNamesPackages(t *testing.T) {
	runner := &fakeRunner{failOn: "install", failErr: errors.New("unable to locate package")}
	installer := NewAptInstaller(runner, logger.NewTestLogger())

	err := installer.Install(context.Background(), "linux-image-9.9.9-generic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linux-image-9.9.9-generic")
}
