package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// HTTPObserver records per-request metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, seconds float64)
}

// requestLogger logs each request with zap. /health and /metrics are not logged.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		if len(c.Errors) > 0 {
			for _, e := range c.Errors.ByType(gin.ErrorTypeAny) {
				logger.Error("request error", append(fields, zap.Error(e.Err))...)
			}
			return
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("server error", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("client error", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// requestMetrics observes request latency labelled by route template.
func requestMetrics(obs HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
