package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/academic-records-service/internal/config"
	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
)

// casdoorTokenParser is the slice of the Casdoor client used here
type casdoorTokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorAuthenticator verifies Casdoor issued tokens and maps the Casdoor
// account onto a local user. The local user row stays the source of truth
// for role and profile links.
type CasdoorAuthenticator struct {
	client   casdoorTokenParser
	userRepo repositories.UserRepository
	auth     services.AuthService
}

func NewCasdoorAuthenticator(cfg config.CasdoorConfig, userRepo repositories.UserRepository, auth services.AuthService) *CasdoorAuthenticator {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorAuthenticator{client: client, userRepo: userRepo, auth: auth}
}

func (a *CasdoorAuthenticator) Authenticate(ctx context.Context, token string) (*models.SessionSnapshot, error) {
	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casdoor token: %w", err)
	}

	user, err := a.localUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return a.auth.SessionForUser(ctx, user)
}

// localUser matches on email first, then on the Casdoor account name
func (a *CasdoorAuthenticator) localUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	if email := strings.TrimSpace(claims.User.Email); email != "" {
		user, err := a.userRepo.GetByEmail(ctx, nil, email)
		if err == nil {
			return user, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
	}

	if name := strings.TrimSpace(claims.User.Name); name != "" {
		user, err := a.userRepo.GetByUsername(ctx, nil, name)
		if err == nil {
			return user, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to look up user by username: %w", err)
		}
	}

	return nil, errors.New("casdoor account has no local user")
}
