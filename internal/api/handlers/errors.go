package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// CodePrefix namespaces every error code returned to clients.
const CodePrefix = "SIMPLE_API__"

// ErrorBody is one entry of the errors response.
type ErrorBody struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// AbortWithError writes the errors response and stops the chain.
func AbortWithError(c *gin.Context, status int, code, detail string) {
	c.AbortWithStatusJSON(status, gin.H{
		"errors": []ErrorBody{{
			Status: strconv.Itoa(status),
			Code:   CodePrefix + code,
			Detail: detail,
		}},
	})
}

// respondError maps err onto a status and error code.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var validation *apperrors.ErrValidation
	var lookup *apperrors.ErrLookup
	var notFound *apperrors.ErrNotFound
	var unauthorized *apperrors.ErrUnauthorized
	var apiErr *platform.APIError

	switch {
	case errors.As(err, &validation):
		AbortWithError(c, http.StatusBadRequest, validation.Code, err.Error())
	case errors.As(err, &lookup):
		AbortWithError(c, http.StatusBadRequest, lookup.Code, err.Error())
	case errors.As(err, &notFound):
		AbortWithError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &unauthorized):
		AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.As(err, &apiErr):
		logger.Warn("Platform rejected request", zap.Int("status", apiErr.Status), zap.String("path", c.Request.URL.Path))
		AbortWithError(c, apiErr.Status, "PLATFORM_ERROR", apiErr.Body)
	default:
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// bindObject decodes the request body into a JSON object.
func bindObject(c *gin.Context) (map[string]interface{}, bool) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		AbortWithError(c, http.StatusBadRequest, apperrors.CodeInvalidPayload, "request body must be a JSON object")
		return nil, false
	}
	return raw, true
}
