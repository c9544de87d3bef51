package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the helpers every resource handler shares
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming call with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	logger := utils.FromContext(c, h.logger)
	logger.Info(msg, append([]any{"method", c.Request.Method, "path", c.FullPath()}, args...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	logger := utils.FromContext(c, h.logger)
	logger.Error(msg, append([]any{"error", err, "path", c.FullPath()}, args...)...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}

// parseIDParam reads a positive numeric path parameter
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name), raw)
		return 0, false
	}
	return uint(id), true
}

// parseIntQuery returns def when the parameter is absent or malformed
func (h *BaseHandler) parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// parseUintQuery returns nil when the parameter is absent
func (h *BaseHandler) parseUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		h.RespondWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name), raw)
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		var details interface{} = validator.ValidationErrors{{Field: validationErr.Field, Message: validationErr.Message}}
		if len(validationErr.Details) > 0 {
			details = validationErr.Details
		}
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", details)
		return
	}

	var permissionErr *services.PermissionError
	if errors.As(err, &permissionErr) {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", map[string]interface{}{
			"resource": permissionErr.ResourceType,
			"action":   permissionErr.Action,
			"reason":   permissionErr.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrValidationFailed):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, services.ErrInvalidSession):
		h.RespondWithError(c, http.StatusUnauthorized, "Invalid session", nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, services.ErrAuthorizationDenied):
		h.RespondWithError(c, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, services.ErrNotFound):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), nil)
	default:
		h.LogError(c, err, "Request failed")
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
