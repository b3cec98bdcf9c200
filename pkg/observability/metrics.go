// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics collection for the gateway: HTTP
// traffic, tool invocations, agent iterations, cache effectiveness, and
// session activity.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	toolInvocations *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec

	agentIterations *prometheus.HistogramVec
	agentOutcomes   *prometheus.CounterVec

	cacheHits *prometheus.CounterVec

	sessionsCreated    *prometheus.CounterVec
	sessionEventsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance from configuration. Returns
// (nil, nil) when metrics are disabled.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}
	m.initHTTPMetrics()
	m.initToolMetrics()
	m.initAgentMetrics()
	m.initCacheMetrics()
	m.initSessionMetrics()
	return m, nil
}

func (m *Metrics) initHTTPMetrics() {
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled by the gateway.",
	}, []string{"method", "route", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.registry.MustRegister(m.httpRequests, m.httpDuration)
}

func (m *Metrics) initToolMetrics() {
	m.toolInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace,
		Subsystem: "tool",
		Name:      "invocations_total",
		Help:      "Total tool invocations, labeled by tool name and outcome.",
	}, []string{"tool", "outcome"})

	m.toolDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace,
		Subsystem: "tool",
		Name:      "duration_seconds",
		Help:      "Tool invocation duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
	}, []string{"tool"})

	m.registry.MustRegister(m.toolInvocations, m.toolDuration)
}

func (m *Metrics) initAgentMetrics() {
	m.agentIterations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace,
		Subsystem: "agent",
		Name:      "iterations",
		Help:      "Number of PLAN/ACT/OBSERVE iterations per agent run.",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	}, []string{"outcome"})

	m.agentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace,
		Subsystem: "agent",
		Name:      "runs_total",
		Help:      "Total agent runs, labeled by terminal outcome.",
	}, []string{"outcome"})

	m.registry.MustRegister(m.agentIterations, m.agentOutcomes)
}

func (m *Metrics) initCacheMetrics() {
	m.cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups, labeled by cache name and hit/miss.",
	}, []string{"cache", "result"})

	m.registry.MustRegister(m.cacheHits)
}

func (m *Metrics) initSessionMetrics() {
	m.sessionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace,
		Subsystem: "session",
		Name:      "created_total",
		Help:      "Total conversation sessions created.",
	}, []string{})

	m.sessionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace,
		Subsystem: "session",
		Name:      "messages_total",
		Help:      "Total messages appended to sessions, labeled by role.",
	}, []string{"role"})

	m.registry.MustRegister(m.sessionsCreated, m.sessionEventsTotal)
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveToolInvocation records one completed tool call.
func (m *Metrics) ObserveToolInvocation(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveAgentRun records one completed agent run's iteration count and
// terminal outcome ("answered", "max_iterations", "deadline_exceeded",
// "error").
func (m *Metrics) ObserveAgentRun(outcome string, iterations int) {
	if m == nil {
		return
	}
	m.agentIterations.WithLabelValues(outcome).Observe(float64(iterations))
	m.agentOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveCacheLookup records a cache hit or miss for a named cache.
func (m *Metrics) ObserveCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheHits.WithLabelValues(cache, result).Inc()
}

// ObserveSessionCreated records a new session being created.
func (m *Metrics) ObserveSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.WithLabelValues().Inc()
}

// ObserveSessionMessage records a message appended to a session.
func (m *Metrics) ObserveSessionMessage(role string) {
	if m == nil {
		return
	}
	m.sessionEventsTotal.WithLabelValues(role).Inc()
}

// Handler returns the HTTP handler serving this registry's metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
