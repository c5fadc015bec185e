package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
)

// RequestID tags every request with an id, an incoming
// X-Request-ID header is kept.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		var id = c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logging logs every request after it was served.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		var start = time.Now()
		c.Next()
		logger.Debugf(
			"[%s] %s %s %d (%s)",
			c.GetString(ctxRequestID), c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start),
		)
	}
}

// errorStatus maps query errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, query_errors.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, query_errors.ErrMultipleObjectsReturned):
		return http.StatusConflict
	case query_errors.IsFieldError(err),
		errors.Is(err, query_errors.ErrTypeMismatch),
		errors.Is(err, query_errors.ErrLookupArgs),
		errors.Is(err, query_errors.ErrNoChanges):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	var status = errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("[%s] %s %s: %s", c.GetString(ctxRequestID), c.Request.Method, c.Request.URL.Path, err.Error())
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
