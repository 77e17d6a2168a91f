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

// Package tracker persists when each configuration domain was last applied,
// and answers which domains changed after the current boot.
package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/sysconfig/pkg/kv"
	"github.com/carverauto/sysconfig/pkg/logger"
)

const keyPrefix = "boot_resource."

// BootClock supplies the boot instant, computed fresh per call.
type BootClock interface {
	BootTime(ctx context.Context) (time.Time, error)
}

// Tracker is the boot-resource change ledger. One instance per host process;
// construct it once and hand it to the engine.
type Tracker struct {
	store  kv.KVStore
	boot   BootClock
	logger logger.Logger
	now    func() time.Time

	// mu serializes writes so concurrent callers resolve last-write-wins.
	mu sync.Mutex
}

// New creates a tracker over the given store and boot clock.
func New(store kv.KVStore, boot BootClock, log logger.Logger) *Tracker {
	return &Tracker{
		store:  store,
		boot:   boot,
		logger: log,
		now:    time.Now,
	}
}

// KeyFor returns the store key for a domain.
func KeyFor(domain string) string {
	return keyPrefix + domain
}

// RecordChange sets the domain's changed-at instant to the current UTC time
// and persists it. Storage failures propagate.
func (t *Tracker) RecordChange(ctx context.Context, domain string) error {
	changedAt := t.now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Put(ctx, KeyFor(domain), encodeTimestamp(changedAt), 0); err != nil {
		return fmt.Errorf("failed to record change for domain %s: %w", domain, err)
	}

	t.logger.Debug().
		Str("domain", domain).
		Time("changed_at", changedAt).
		Msg("Recorded boot resource change")

	return nil
}

// LastChanged returns the recorded changed-at instant for the domain, or the
// zero time if the domain was never recorded. An unreadable record is a
// storage error, not a silent reset.
func (t *Tracker) LastChanged(ctx context.Context, domain string) (time.Time, error) {
	raw, found, err := t.store.Get(ctx, KeyFor(domain))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read change record for domain %s: %w", domain, err)
	}

	if !found {
		return time.Time{}, nil
	}

	changedAt, err := decodeTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("domain %s: %w", domain, err)
	}

	return changedAt, nil
}

// ChangedSinceBoot returns the subset of domains whose last change is
// strictly after the current boot instant, preserving input order. Domains
// never recorded count as changed at the dawn of time, so they are excluded.
func (t *Tracker) ChangedSinceBoot(ctx context.Context, domains []string) ([]string, error) {
	bootTime, err := t.boot.BootTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute boot time: %w", err)
	}

	changed := make([]string, 0, len(domains))

	for _, domain := range domains {
		lastChanged, err := t.LastChanged(ctx, domain)
		if err != nil {
			return nil, err
		}

		if lastChanged.After(bootTime) {
			changed = append(changed, domain)
		}
	}

	t.logger.Debug().
		Time("boot_time", bootTime).
		Strs("changed", changed).
		Msg("Evaluated boot resources against boot time")

	return changed, nil
}

// encodeTimestamp stores instants as float seconds since the Unix epoch.
func encodeTimestamp(ts time.Time) []byte {
	seconds := float64(ts.UnixNano()) / float64(time.Second)

	return []byte(strconv.FormatFloat(seconds, 'f', -1, 64))
}

func decodeTimestamp(raw []byte) (time.Time, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errCorruptRecord, raw)
	}

	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))

	return time.Unix(sec, nsec).UTC(), nil
}
