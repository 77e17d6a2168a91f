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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sysconfig/pkg/kv"
	"github.com/carverauto/sysconfig/pkg/logger"
	"github.com/carverauto/sysconfig/pkg/models"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestFileLoaderJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"desired": {
			"reservation": "isolcpus",
			"cpu_range": "0-3",
			"governor": "performance",
			"kernel_version": "5.15.0-99-generic"
		},
		"store": {"backend": "sqlite", "path": "/var/lib/sysconfig/state.db"},
		"listen_addr": ":9261"
	}`)

	var cfg models.AgentConfig

	loader := NewFileLoader(logger.NewTestLogger())
	require.NoError(t, loader.Load(context.Background(), path, &cfg))

	assert.Equal(t, models.ReservationIsolCPUs, cfg.Desired.Reservation)
	assert.Equal(t, "0-3", cfg.Desired.CPURange)
	assert.Equal(t, models.GovernorPerformance, cfg.Desired.Governor)
	assert.Equal(t, "5.15.0-99-generic", cfg.Desired.KernelVersion)
	assert.Equal(t, kv.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/sysconfig/state.db", cfg.Store.Path)
	assert.Equal(t, ":9261", cfg.ListenAddr)
}

func TestFileLoaderTOML(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `
listen_addr = ":9261"

[desired]
reservation = "affinity"
cpu_range = "0-7,24-31"
enable_iommu = true

[store]
backend = "nats"
nats_url = "nats://127.0.0.1:4222"
`)

	var cfg models.AgentConfig

	loader := NewFileLoader(logger.NewTestLogger())
	require.NoError(t, loader.Load(context.Background(), path, &cfg))

	assert.Equal(t, models.ReservationAffinity, cfg.Desired.Reservation)
	assert.Equal(t, "0-7,24-31", cfg.Desired.CPURange)
	assert.True(t, cfg.Desired.EnableIOMMU)
	assert.Equal(t, kv.BackendNATS, cfg.Store.Backend)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Store.NATSURL)
}

func TestFileLoaderYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
desired:
  reservation: isolcpus
  cpu_range: "0-3"
  hugepages: "512"
  hugepagesz: "2M"
logging:
  level: debug
`)

	var cfg models.AgentConfig

	loader := NewFileLoader(logger.NewTestLogger())
	require.NoError(t, loader.Load(context.Background(), path, &cfg))

	assert.Equal(t, "512", cfg.Desired.Hugepages)
	assert.Equal(t, "2M", cfg.Desired.Hugepagesz)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestFileLoaderRejectsUnknownExtension(t *testing.T) {
	path := writeConfigFile(t, "config.ini", "[desired]\ngovernor=performance\n")

	var cfg models.AgentConfig

	loader := NewFileLoader(logger.NewTestLogger())
	err := loader.Load(context.Background(), path, &cfg)

	require.ErrorIs(t, err, errUnsupportedConfigFormat)
}

func TestFileLoaderMissingFile(t *testing.T) {
	var cfg models.AgentConfig

	loader := NewFileLoader(logger.NewTestLogger())
	err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"), &cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvLoaderConfigJSONDocument(t *testing.T) {
	t.Setenv("SYSCONFIG_CONFIG_JSON", `{"desired":{"governor":"powersave","update_grub":true}}`)

	var cfg models.AgentConfig

	loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)
	require.NoError(t, loader.Load(context.Background(), "", &cfg))

	assert.Equal(t, models.GovernorPowersave, cfg.Desired.Governor)
	assert.True(t, cfg.Desired.UpdateGrub)
}

func TestEnvLoaderFieldOverrides(t *testing.T) {
	t.Setenv("SYSCONFIG_DESIRED_GOVERNOR", "powersave")
	t.Setenv("SYSCONFIG_DESIRED_CPU_RANGE", "0-3")
	t.Setenv("SYSCONFIG_DESIRED_ENABLE_PTI", "false")
	t.Setenv("SYSCONFIG_STORE_BACKEND", "nats")
	t.Setenv("SYSCONFIG_STORE_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("SYSCONFIG_STORE_BUCKET_HISTORY", "8")
	t.Setenv("SYSCONFIG_LISTEN_ADDR", ":9300")

	var cfg models.AgentConfig

	loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)
	require.NoError(t, loader.Load(context.Background(), "", &cfg))

	assert.Equal(t, models.GovernorPowersave, cfg.Desired.Governor)
	assert.Equal(t, "0-3", cfg.Desired.CPURange)
	require.NotNil(t, cfg.Desired.EnablePTI)
	assert.False(t, *cfg.Desired.EnablePTI)
	assert.Equal(t, kv.BackendNATS, cfg.Store.Backend)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Store.NATSURL)
	assert.Equal(t, uint32(8), cfg.Store.BucketHistory)
	assert.Equal(t, ":9300", cfg.ListenAddr)
}

func TestEnvLoaderRejectsUint32Overflow(t *testing.T) {
	// 2^32+1 would land as 1 on the uint32 field if the width were not checked.
	t.Setenv("SYSCONFIG_STORE_BUCKET_HISTORY", "4294967297")

	var cfg models.AgentConfig

	loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)

	err := loader.Load(context.Background(), "", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflows")
	assert.Contains(t, err.Error(), "SYSCONFIG_STORE_BUCKET_HISTORY")
}

func TestEnvLoaderDurationField(t *testing.T) {
	t.Run("duration syntax", func(t *testing.T) {
		t.Setenv("SYSCONFIG_WATCH_DEBOUNCE", "5s")

		var cfg models.AgentConfig

		loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)
		require.NoError(t, loader.Load(context.Background(), "", &cfg))

		assert.Equal(t, models.Duration(5*time.Second), cfg.WatchDebounce)
	})

	t.Run("nanosecond integer", func(t *testing.T) {
		t.Setenv("SYSCONFIG_WATCH_DEBOUNCE", "3000000000")

		var cfg models.AgentConfig

		loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)
		require.NoError(t, loader.Load(context.Background(), "", &cfg))

		assert.Equal(t, models.Duration(3*time.Second), cfg.WatchDebounce)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		t.Setenv("SYSCONFIG_WATCH_DEBOUNCE", "soon")

		var cfg models.AgentConfig

		loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)
		require.Error(t, loader.Load(context.Background(), "", &cfg))
	})
}

func TestEnvLoaderAllocatesPointerSectionsLazily(t *testing.T) {
	var cfg models.AgentConfig

	loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)
	require.NoError(t, loader.Load(context.Background(), "", &cfg))
	assert.Nil(t, cfg.Logging, "logging section should stay nil without SYSCONFIG_LOGGING_* variables")

	t.Setenv("SYSCONFIG_LOGGING_LEVEL", "debug")

	var withLogging models.AgentConfig

	require.NoError(t, loader.Load(context.Background(), "", &withLogging))
	require.NotNil(t, withLogging.Logging)
	assert.Equal(t, "debug", withLogging.Logging.Level)
}

func TestEnvLoaderRejectsBadDestinations(t *testing.T) {
	loader := NewEnvLoader(logger.NewTestLogger(), defaultEnvPrefix)

	err := loader.Load(context.Background(), "", models.AgentConfig{})
	require.ErrorIs(t, err, ErrDstMustBeNonNilPointer)

	value := "not a struct"
	err = loader.Load(context.Background(), "", &value)
	require.ErrorIs(t, err, ErrDstMustBePointerToStruct)
}

func TestServiceLoadAndValidateFillsDefaults(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"desired": {"governor": "performance"}}`)

	var cfg models.AgentConfig

	svc := NewService(logger.NewTestLogger())
	require.NoError(t, svc.LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, models.ReservationOff, cfg.Desired.Reservation)
	assert.Equal(t, models.DefaultGrubConfigPath, cfg.Paths.GrubConfig)
	assert.Equal(t, models.DefaultSystemdConfigPath, cfg.Paths.SystemdConfig)
	assert.Equal(t, models.DefaultCPUFreqConfigPath, cfg.Paths.CPUFreqConfig)
	assert.Equal(t, kv.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, kv.DefaultSQLitePath, cfg.Store.Path)
	assert.Equal(t, models.Duration(2*time.Second), cfg.WatchDebounce)
}

func TestServiceLoadAndValidateRejectsInvalidDesiredState(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"desired": {"governor": "eco", "reservation": "some"}}`)

	var cfg models.AgentConfig

	svc := NewService(logger.NewTestLogger())
	err := svc.LoadAndValidate(context.Background(), path, &cfg)

	var validationErr *models.ValidationError

	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Violations, 2)
}

func TestServiceEnvSourceSelection(t *testing.T) {
	t.Setenv("SYSCONFIG_CONFIG_SOURCE", "env")
	t.Setenv("SYSCONFIG_CONFIG_JSON", `{"desired":{"governor":"powersave"}}`)

	var cfg models.AgentConfig

	svc := NewService(logger.NewTestLogger())
	require.NoError(t, svc.LoadAndValidate(context.Background(), "/nonexistent/config.json", &cfg))

	assert.Equal(t, models.GovernorPowersave, cfg.Desired.Governor)
}

func TestServiceRejectsUnknownConfigSource(t *testing.T) {
	t.Setenv("SYSCONFIG_CONFIG_SOURCE", "consul")

	var cfg models.AgentConfig

	svc := NewService(logger.NewTestLogger())
	err := svc.LoadAndValidate(context.Background(), "config.json", &cfg)

	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestValidateConfigSkipsNonValidators(t *testing.T) {
	plain := struct{ Name string }{Name: "anything"}

	require.NoError(t, ValidateConfig(&plain))
}
