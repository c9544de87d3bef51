package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

const tokenIssuer = "academic-records-service"

// JWTAuthenticator signs and verifies HS256 session tokens for the local
// auth provider
type JWTAuthenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTAuthenticator(secret string, ttl time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token carrying the session snapshot
func (a *JWTAuthenticator) Issue(session *models.SessionSnapshot) (string, time.Time, error) {
	if session == nil || !session.Authenticated {
		return "", time.Time{}, errors.New("cannot issue token for unauthenticated session")
	}

	now := a.now().UTC()
	expiresAt := now.Add(a.ttl)
	claims := jwt.MapClaims{
		"iss":      tokenIssuer,
		"sub":      fmt.Sprintf("%d", session.UserID),
		"user_id":  session.UserID,
		"username": session.Username,
		"role":     string(session.Role),
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}
	if session.EntityID != nil {
		claims["entity_id"] = *session.EntityID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, token string) (*models.SessionSnapshot, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	parsed, err := parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return nil, errors.New("unexpected token issuer")
	}
	if _, hasExp := claims["exp"]; !hasExp {
		return nil, errors.New("token has no exp")
	}

	userID, ok := numericClaim(claims, "user_id")
	if !ok || userID == 0 {
		return nil, errors.New("token has no user_id")
	}
	role := models.UserRole(stringClaim(claims, "role"))
	if !role.IsValid() {
		return nil, fmt.Errorf("token has unknown role %q", role)
	}

	session := &models.SessionSnapshot{
		Authenticated: true,
		UserID:        userID,
		Username:      stringClaim(claims, "username"),
		Role:          role,
	}
	if entityID, ok := numericClaim(claims, "entity_id"); ok {
		session.EntityID = &entityID
	}
	if role != models.RoleAdmin && session.EntityID == nil {
		return nil, errors.New("token has no entity_id")
	}
	return session, nil
}

// numericClaim reads a JSON number claim, which decodes as float64
func numericClaim(claims jwt.MapClaims, key string) (uint, bool) {
	v, ok := claims[key].(float64)
	if !ok || v < 0 || v != float64(uint(v)) {
		return 0, false
	}
	return uint(v), true
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
