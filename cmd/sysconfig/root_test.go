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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"apply", "remove", "status", "watch", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandFlagDefaults(t *testing.T) {
	cmd := newRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, defaultConfigPath, configFlag.DefValue)

	stateDirFlag := cmd.PersistentFlags().Lookup("state-dir")
	require.NotNil(t, stateDirFlag)
	assert.Equal(t, defaultStateDir, stateDirFlag.DefValue)
}

func TestVersionCommandOutput(t *testing.T) {
	cmd := newRootCommand()

	var buf bytes.Buffer

	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "sysconfig dev (build: dev)")
}
