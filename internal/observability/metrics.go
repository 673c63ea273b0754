package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	statsd "gopkg.in/alexcesaro/statsd.v2"

	"github.com/spec-kit/repair-service/internal/config"
)

// Metrics provides basic in-memory counters, optionally forwarded to statsd.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	transitionCount map[string]int64

	statsd *statsd.Client
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		transitionCount: make(map[string]int64),
	}
}

// NewMetricsFromConfig initializes metrics and, when an address is configured,
// a statsd client every counter is forwarded to.
func NewMetricsFromConfig(cfg config.MetricsConfig, logger *zap.Logger) *Metrics {
	m := NewMetrics()
	if cfg.StatsdAddr == "" {
		return m
	}
	c, err := statsd.New(statsd.Address(cfg.StatsdAddr), statsd.Prefix(cfg.StatsdPrefix))
	if err != nil {
		// the client is muted but still usable
		logger.Warn("statsd unavailable", zap.String("addr", cfg.StatsdAddr), zap.Error(err))
	}
	m.statsd = c
	return m
}

// Close flushes and closes the statsd client.
func (m *Metrics) Close() {
	if m != nil && m.statsd != nil {
		m.statsd.Close()
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	m.requestCount[key]++
	m.mu.Unlock()

	if m.statsd != nil {
		m.statsd.Increment("http.requests." + strconv.Itoa(status))
		m.statsd.Timing("http.latency", int(duration/time.Millisecond))
	}
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	m.errorCount[key]++
	m.mu.Unlock()

	if m.statsd != nil {
		m.statsd.Increment("http.errors." + strings.ToLower(code))
	}
}

// RecordTransition counts committed ticket status changes.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	key := from + ">" + to
	m.mu.Lock()
	m.transitionCount[key]++
	m.mu.Unlock()

	if m.statsd != nil {
		m.statsd.Increment("tickets." + strings.ToLower(to))
	}
}

// RequestCount returns the number of requests recorded for path, method and status.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount[pathKey(path, method, status)]
}

// ErrorCount returns the number of errors recorded for path, method and code.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCount[path+"|"+method+"|"+code]
}

// TransitionCount returns how often a ticket moved from one status to another.
func (m *Metrics) TransitionCount(from, to string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionCount[from+">"+to]
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
