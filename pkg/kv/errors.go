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

import (
	"errors"
)

// ErrWatchUnsupported is returned by backends without a change feed.
var ErrWatchUnsupported = errors.New("watch is not supported by this backend")

var (
	errUnknownBackend        = errors.New("backend must be \"sqlite\" or \"nats\"")
	errPathRequired          = errors.New("path is required for the sqlite backend")
	errNatsURLRequired       = errors.New("nats_url is required for the nats backend")
	errStoreClosed           = errors.New("store is closed")
	errBucketHistoryTooLarge = errors.New("bucket_history must fit in a single byte")
)
