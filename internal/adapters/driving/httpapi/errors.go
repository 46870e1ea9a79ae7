package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/logger"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var parseErr *domain.ParseError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// ConfigurationError lands here: the deployment is broken, not the request.
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it with the matching status.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed", fields...)
	} else {
		logger.L().Debug("request rejected", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Detail: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Detail: msg})
}
