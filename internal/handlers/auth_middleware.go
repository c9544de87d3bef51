package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
)

const sessionContextKey = "session"

var (
	errMissingToken = errors.New("authorization header missing")
	errTokenFormat  = errors.New("invalid authorization header format")
)

// SessionAuthenticator turns a bearer token into a session snapshot.
// Both the local JWT issuer and Casdoor implement it.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.SessionSnapshot, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the resolved session under "session".
func AuthMiddleware(authenticator SessionAuthenticator, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized", Details: err.Error()})
			return
		}

		session, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.FromContext(c, logger).Warn("Rejected bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized", Details: "invalid token"})
			return
		}

		c.Set(sessionContextKey, session)
		c.Set("user_id", session.UserID)
		c.Set("user_role", session.Role)
		c.Next()
	}
}

// RequireRoleMiddleware is a coarse route guard. Ownership checks stay in
// the services.
func RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("user_role")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
			return
		}
		if !slices.Contains(requiredRoles, role.(models.UserRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access denied",
				Details: map[string]interface{}{"required_roles": requiredRoles},
			})
			return
		}
		c.Next()
	}
}

// GetSessionFromContext returns nil when the request was not authenticated
func GetSessionFromContext(c *gin.Context) *models.SessionSnapshot {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, _ := value.(*models.SessionSnapshot)
	return session
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingToken
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errTokenFormat
	}
	return fields[1], nil
}
