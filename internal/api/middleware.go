package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/easyonboard/easyonboard/internal/queue"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	})
}

// LoggingMiddleware logs each request with latency and status
func LoggingMiddleware() gin.HandlerFunc {
	logger := logging.GetLogger()
	return gin.HandlerFunc(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("Request handled",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFrom(c),
			"client_ip", c.ClientIP(),
		)
	})
}

// ErrorHandlingMiddleware recovers from panics and renders the envelope
func ErrorHandlingMiddleware() gin.HandlerFunc {
	logger := logging.GetLogger()
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered in handler",
			"panic", fmt.Sprintf("%v", recovered),
			"path", c.Request.URL.Path,
			"request_id", requestIDFrom(c),
		)
		ErrorResponse(c, 500, "INTERNAL_ERROR", "An internal error occurred")
		c.Abort()
	})
}

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates JWT tokens and sets the employee context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			UnauthorizedResponse(c, "Authorization header is required")
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			UnauthorizedResponse(c, "Authorization header must be in format 'Bearer <token>'")
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenParts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil {
			UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid {
			UnauthorizedResponse(c, "Invalid token claims")
			c.Abort()
			return
		}

		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
			UnauthorizedResponse(c, "Token has expired")
			c.Abort()
			return
		}

		c.Set("employee_id", claims.EmployeeID)
		c.Set("employee_email", claims.Email)
		c.Set("employee_name", claims.Name)

		c.Next()
	})
}

// RateLimitMiddleware provides Redis-based rate limiting. A nil client
// disables limiting so the API stays up when Redis is absent.
func RateLimitMiddleware(rc *queue.RedisClient) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		if rc == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())
		ctx := c.Request.Context()

		limit := int64(100)
		window := 60 * time.Second

		count, err := rc.Client().Incr(ctx, key).Result()
		if err != nil {
			// Redis trouble must not take requests down with it
			logging.GetLogger().Warn("Rate limit counter update failed", "error", err.Error())
			c.Next()
			return
		}

		// The TTL is set only when the key is created, so the counter
		// covers a fixed window and resets every 60 seconds.
		if count == 1 {
			if err := rc.Client().Expire(ctx, key, window).Err(); err != nil {
				logging.GetLogger().Warn("Rate limit window reset failed", "error", err.Error())
			}
		}

		if count > limit {
			ErrorResponse(c, 429, "RATE_LIMITED", "Rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	})
}

// EmployeeIDFrom returns the authenticated employee ID from the context
func EmployeeIDFrom(c *gin.Context) (string, bool) {
	employeeID, exists := c.Get("employee_id")
	if !exists {
		return "", false
	}
	id, ok := employeeID.(string)
	return id, ok && id != ""
}
