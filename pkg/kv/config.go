package kv

import "math"

// Validate ensures the configuration is valid.
func (c *Config) Validate() error {
	c.setDefaultBackend()

	if err := c.validateBackendFields(); err != nil {
		return err
	}

	if c.BucketHistory > math.MaxUint8 {
		return errBucketHistoryTooLarge
	}

	c.setDefaultBucket()

	return nil
}

// validateBackendFields checks the fields the selected backend requires.
func (c *Config) validateBackendFields() error {
	switch c.Backend {
	case BackendSQLite:
		if c.Path == "" {
			return errPathRequired
		}
	case BackendNATS:
		if c.NATSURL == "" {
			return errNatsURLRequired
		}
	default:
		return errUnknownBackend
	}

	return nil
}

// setDefaultBackend selects the local SQLite store when unset.
func (c *Config) setDefaultBackend() {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}

	if c.Backend == BackendSQLite && c.Path == "" {
		c.Path = DefaultSQLitePath
	}
}

// setDefaultBucket assigns a default bucket name if none is specified.
func (c *Config) setDefaultBucket() {
	if c.Bucket == "" {
		c.Bucket = "sysconfig"
	}

	if c.BucketHistory == 0 {
		c.BucketHistory = 1
	}
}

// DefaultSQLitePath is where the agent keeps its state database.
const DefaultSQLitePath = "/var/lib/sysconfig/state.db"
