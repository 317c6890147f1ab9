// Package middleware provides the gin middleware stack shared by every
// HTTP handler: request/trace ID injection, structured access logging,
// panic recovery, CORS, and a token-bucket rate limiter.
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wyfcoding/financialtrading/pkg/logging"
)

const (
	RequestIDKey = "request_id"
	TraceIDKey   = "trace_id"
)

// LoggingMiddleware assigns a request/trace ID to every inbound request,
// stores both on the gin context, attaches the trace ID to the request
// context for logging.WithContext, and logs start/completion.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Set(TraceIDKey, traceID)

		ctx := logging.WithTraceID(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		logging.Info(ctx, "http request started",
			"request_id", requestID, "method", method, "path", path, "client_ip", c.ClientIP())

		c.Next()

		logging.Info(ctx, "http request completed",
			"request_id", requestID, "method", method, "path", path,
			"status_code", c.Writer.Status(), "response_size", c.Writer.Size(),
			"duration", time.Since(start))
	}
}

// RecoveryMiddleware converts a panic in a downstream handler into a 500
// JSON response instead of crashing the process.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID, _ := c.Get(RequestIDKey)
				logging.Error(c.Request.Context(), "http request panicked", "request_id", requestID, "panic", err)
				c.JSON(500, gin.H{"error": "internal server error", "request_id": requestID})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// CORSMiddleware allows cross-origin requests from any origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// RateLimiter is a token-bucket limiter shared across every request gin
// dispatches, so Allow must be safe for concurrent use.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

// NewRateLimiter constructs a limiter that holds maxTokens and refills at
// refillRate tokens/second.
func NewRateLimiter(maxTokens, refillRate float64) *RateLimiter {
	return &RateLimiter{tokens: maxTokens, maxTokens: maxTokens, refillRate: refillRate, lastRefill: time.Now()}
}

// Allow consumes one token if available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.maxTokens, rl.tokens+elapsed*rl.refillRate)
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// RateLimitMiddleware rejects requests with 429 once limiter is exhausted.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(429, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
