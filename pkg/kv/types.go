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

package kv

// Backend selects the store implementation.
type Backend string

const (
	// BackendSQLite stores state in a local SQLite database file.
	BackendSQLite Backend = "sqlite"
	// BackendNATS stores state in a NATS JetStream KV bucket, for hosts
	// whose reboot state should be queryable off-box.
	BackendNATS Backend = "nats"
)

// Config holds the configuration for the state store.
type Config struct {
	Backend Backend `json:"backend,omitempty" yaml:"backend,omitempty" toml:"backend,omitempty"`
	// Path is the SQLite database file, e.g. /var/lib/sysconfig/state.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	// NATSURL is the server URL for the nats backend, e.g. nats://127.0.0.1:4222.
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty" toml:"nats_url,omitempty"`
	Bucket  string `json:"bucket,omitempty" yaml:"bucket,omitempty" toml:"bucket,omitempty"`
	// BucketHistory is the history depth per key (nats backend only).
	BucketHistory uint32 `json:"bucket_history,omitempty" yaml:"bucket_history,omitempty" toml:"bucket_history,omitempty"`
}
