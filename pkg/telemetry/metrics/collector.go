package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/toolproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// Collector owns every toolproxy metric and the registry they live in.
// Methods are safe on a nil *Collector and on a disabled collector, in
// which case they do nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	httpMetrics    *HTTPMetrics
	backendMetrics *BackendMetrics
	toolMetrics    *ToolMetrics

	toolNames *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics. A nil
// registry gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		httpMetrics:    NewHTTPMetrics(cfg, registry),
		backendMetrics: NewBackendMetrics(cfg, registry),
		toolMetrics:    NewToolMetrics(cfg, registry),
		toolNames:      NewCardinalityLimiter(64),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordHTTPRequest records one served HTTP request. route should be the
// matched mux pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpMetrics.record(route, method, strconv.Itoa(status), duration)
}

// RecordBackendRequest records one exchange with the inference server.
// mode is "json" or "stream"; outcome is "success", "http_error",
// "unreachable", "timeout" or "parse_error".
func (c *Collector) RecordBackendRequest(mode, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.backendMetrics.record(mode, outcome, duration)
}

// RecordStreamBytes adds relayed stream bytes.
func (c *Collector) RecordStreamBytes(n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.backendMetrics.streamBytes.Add(float64(n))
}

// SetBackendReachable records the result of the latest health probe.
func (c *Collector) SetBackendReachable(reachable bool) {
	if !c.enabled() {
		return
	}
	c.backendMetrics.setReachable(reachable)
}

// RecordToolInvocation records one function dispatch. Unknown tool names
// are client controlled, so they are folded into OtherLabel past the
// cardinality limit.
func (c *Collector) RecordToolInvocation(tool, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if !c.toolNames.Allow(tool) {
		tool = OtherLabel
	}
	c.toolMetrics.record(tool, outcome, duration)
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already admitted or can still be admitted.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
