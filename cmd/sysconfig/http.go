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

	"github.com/gorilla/mux"

	"github.com/carverauto/sysconfig/pkg/models"
)

const defaultListenAddr = ":9261"

// newRouter serves the watch-mode endpoints: liveness, the latest status
// snapshot, and Prometheus metrics.
func newRouter(statusFn func() *models.Status, metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		st := statusFn()

		w.Header().Set("Content-Type", "application/json")

		if st == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"status not available yet"}`))

			return
		}

		_ = json.NewEncoder(w).Encode(st)
	}).Methods(http.MethodGet)

	router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	return router
}
