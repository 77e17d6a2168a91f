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

// Package metrics exposes reconciliation counters over Prometheus. A nil
// *Recorder is valid and records nothing, so callers never guard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pass result label values.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Recorder owns the registry so tests and multiple instances never collide
// on global collector names.
type Recorder struct {
	registry        *prometheus.Registry
	reconcilePasses *prometheus.CounterVec
	domainRewrites  *prometheus.CounterVec
	rebootRequired  prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		reconcilePasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sysconfig_reconcile_passes_total",
				Help: "Reconciliation passes by result.",
			},
			[]string{"result"},
		),
		domainRewrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sysconfig_domain_rewrites_total",
				Help: "Managed configuration rewrites by domain.",
			},
			[]string{"domain"},
		),
		rebootRequired: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sysconfig_reboot_required",
				Help: "Whether applied changes await a reboot (1) or not (0).",
			},
		),
	}

	r.registry.MustRegister(r.reconcilePasses, r.domainRewrites, r.rebootRequired)

	return r
}

// ObservePass counts one reconciliation pass with the given result.
func (r *Recorder) ObservePass(result string) {
	if r == nil {
		return
	}

	r.reconcilePasses.WithLabelValues(result).Inc()
}

// ObserveRewrite counts one managed-file rewrite for a domain.
func (r *Recorder) ObserveRewrite(domain string) {
	if r == nil {
		return
	}

	r.domainRewrites.WithLabelValues(domain).Inc()
}

// SetRebootRequired publishes the current reboot-required verdict.
func (r *Recorder) SetRebootRequired(required bool) {
	if r == nil {
		return
	}

	if required {
		r.rebootRequired.Set(1)
	} else {
		r.rebootRequired.Set(0)
	}
}

// Handler serves the registry for the watch-mode /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
