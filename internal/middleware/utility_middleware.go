package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"ourskilllab/internal/utils"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const RequestIDHeader = utils.HeaderRequestID

// CORSMiddleware allows the configured origins. A "*" entry allows any
// origin without credentials.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			config.AllowAllOrigins = true
			config.AllowCredentials = false
			break
		}
	}
	if !config.AllowAllOrigins {
		config.AllowOrigins = allowedOrigins
	}

	return cors.New(config)
}

// RequestIDMiddleware keeps a caller-supplied request id or assigns one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(utils.ContextKeyRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request and records its latency.
func LoggingMiddleware(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), status, duration)

		var userID *primitive.ObjectID
		if principal := GetPrincipal(c); principal != nil {
			userID = &principal.UserID
		}
		reqLog := log.WithRequestID(c.GetString(utils.ContextKeyRequestID))
		reqLog.LogAPIRequest(c.Request.Method, c.Request.URL.Path, status, duration, userID)

		for _, ginErr := range c.Errors {
			reqLog.WithError(ginErr.Err).WithField("path", c.Request.URL.Path).Error("Request failed")
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 envelope.
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.WithRequestID(c.GetString(utils.ContextKeyRequestID)).WithFields(map[string]interface{}{
					"panic": fmt.Sprint(recovered),
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Recovered from panic")
				utils.InternalServerErrorResponse(c)
				c.Abort()
			}
		}()
		c.Next()
	}
}
