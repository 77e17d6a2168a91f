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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandContextDefaults(t *testing.T) {
	empty := ""

	ctx := newCommandContext(&empty, &empty)

	assert.Equal(t, defaultConfigPath, ctx.configPath())
	assert.Equal(t, defaultStateDir, ctx.stateDir())
}

func TestCommandContextHonorsFlags(t *testing.T) {
	configPath := "/tmp/custom.json"
	stateDir := "/tmp/state"

	ctx := newCommandContext(&configPath, &stateDir)

	assert.Equal(t, configPath, ctx.configPath())
	assert.Equal(t, stateDir, ctx.stateDir())
}

func TestAcquireLockExcludesConcurrentHolders(t *testing.T) {
	configPath := "unused"
	stateDir := t.TempDir()

	ctx := newCommandContext(&configPath, &stateDir)

	release, err := ctx.acquireLock()
	require.NoError(t, err)

	_, err = ctx.acquireLock()
	require.ErrorIs(t, err, errLockHeld)

	release()

	release, err = ctx.acquireLock()
	require.NoError(t, err)
	release()
}
