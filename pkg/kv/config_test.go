package kv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidateDefaultsToSQLite(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, cfg.Backend)
	require.Equal(t, DefaultSQLitePath, cfg.Path)
	require.Equal(t, "sysconfig", cfg.Bucket)
	require.Equal(t, uint32(1), cfg.BucketHistory)
}

func TestConfigValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{Backend: "etcd"}

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, errUnknownBackend)
}

func TestConfigValidateRequiresNatsURL(t *testing.T) {
	cfg := &Config{Backend: BackendNATS}

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, errNatsURLRequired)
}

func TestConfigValidateKeepsExplicitPath(t *testing.T) {
	cfg := &Config{Backend: BackendSQLite, Path: "/tmp/sysconfig-test.db"}

	err := cfg.Validate()
	require.NoError(t, err)
	require.Equal(t, "/tmp/sysconfig-test.db", cfg.Path)
}

func TestConfigValidateRejectsBucketHistoryTooLarge(t *testing.T) {
	cfg := &Config{
		Backend:       BackendNATS,
		NATSURL:       "nats://127.0.0.1:4222",
		BucketHistory: math.MaxUint8 + 1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, errBucketHistoryTooLarge)
}
