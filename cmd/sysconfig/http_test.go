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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sysconfig/pkg/metrics"
	"github.com/carverauto/sysconfig/pkg/models"
)

func TestRouterHealthz(t *testing.T) {
	router := newRouter(func() *models.Status { return nil }, metrics.New().Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouterStatusBeforeFirstPass(t *testing.T) {
	router := newRouter(func() *models.Status { return nil }, metrics.New().Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterStatusServesSnapshot(t *testing.T) {
	st := &models.Status{
		RebootRequired: true,
		ChangedDomains: []string{"grub"},
		BootTime:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		KernelRunning:  "5.15.0-91-generic",
	}

	router := newRouter(func() *models.Status { return st }, metrics.New().Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded models.Status

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.True(t, decoded.RebootRequired)
	assert.Equal(t, []string{"grub"}, decoded.ChangedDomains)
	assert.Equal(t, "5.15.0-91-generic", decoded.KernelRunning)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newRouter(func() *models.Status { return nil }, metrics.New().Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sysconfig_reboot_required")
}

func TestRouterRejectsNonGet(t *testing.T) {
	router := newRouter(func() *models.Status { return nil }, metrics.New().Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
