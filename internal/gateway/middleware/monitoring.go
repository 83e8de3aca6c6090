package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// RequestMetrics holds request counters
type RequestMetrics struct {
	TotalRequests    int64
	RequestsByStatus map[int]int64
	AverageLatency   time.Duration
}

// Monitor logs every request and keeps counters
type Monitor struct {
	logger       logger.Logger
	mu           sync.Mutex
	total        int64
	byStatus     map[int]int64
	totalLatency time.Duration
}

// NewMonitor creates a request monitor
func NewMonitor(log logger.Logger) *Monitor {
	return &Monitor{
		logger:   log,
		byStatus: make(map[int]int64),
	}
}

// Handler returns the monitoring middleware
func (m *Monitor) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		m.mu.Lock()
		m.total++
		m.byStatus[status]++
		m.totalLatency += latency
		m.mu.Unlock()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		log := m.logger.With("request_id", getRequestID(c))
		switch {
		case status >= 500:
			log.Error("Request completed: method=%s path=%s status=%d latency=%v ip=%s",
				c.Request.Method, path, status, latency, c.ClientIP())
		case status >= 400:
			log.Warn("Request completed: method=%s path=%s status=%d latency=%v ip=%s",
				c.Request.Method, path, status, latency, c.ClientIP())
		default:
			log.Info("Request completed: method=%s path=%s status=%d latency=%v ip=%s",
				c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}

// Snapshot returns a copy of the counters
func (m *Monitor) Snapshot() RequestMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := RequestMetrics{
		TotalRequests:    m.total,
		RequestsByStatus: make(map[int]int64, len(m.byStatus)),
	}
	for status, n := range m.byStatus {
		snapshot.RequestsByStatus[status] = n
	}
	if m.total > 0 {
		snapshot.AverageLatency = m.totalLatency / time.Duration(m.total)
	}
	return snapshot
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")

		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
