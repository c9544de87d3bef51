package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

// TokenIssuer signs session tokens after a successful local login
type TokenIssuer interface {
	Issue(session *models.SessionSnapshot) (string, time.Time, error)
}

type LoginResponse struct {
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expires_at"`
	Session   *models.SessionSnapshot `json:"session"`
}

type AuthHandler struct {
	BaseHandler
	service   services.AuthService
	issuer    TokenIssuer
	validator *validator.Validator
}

func NewAuthHandler(service services.AuthService, issuer TokenIssuer, validator *validator.Validator, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		issuer:      issuer,
		validator:   validator,
	}
}

// Login exchanges a username and password for a bearer token
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req validator.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		details := validator.ToValidationErrors(err)
		for i := range details {
			details[i].Value = nil
		}
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", details)
		return
	}

	h.LogRequest(c, "Login attempt", "username", req.Username)

	session, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, expiresAt, err := h.issuer.Issue(session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, Session: session})
}

// Me echoes the session resolved from the bearer token
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := GetSessionFromContext(c)
	if session == nil {
		h.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	c.JSON(http.StatusOK, session)
}
