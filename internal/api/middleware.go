package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	zerrors "zonix/internal/errors"
	"zonix/internal/logging"
	"zonix/internal/performance"
)

// requestLogger logs every request through zerolog and attaches a request
// scoped logger to the request context.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logging.WithOperation(logger, c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last().Err
		}
		logging.LogAPICall(logger, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), err)
	}
}

func rateLimit(limiter *performance.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *zerrors.ValidationError
	switch {
	case errors.Is(err, zerrors.ErrUnknownSymbol),
		errors.Is(err, zerrors.ErrUnknownState),
		errors.Is(err, zerrors.ErrDataNotFound):
		return http.StatusNotFound
	case errors.Is(err, zerrors.ErrHistoryDisabled),
		errors.Is(err, zerrors.ErrEngineClosed),
		errors.Is(err, zerrors.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &verr),
		errors.Is(err, zerrors.ErrInvalidSpot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
