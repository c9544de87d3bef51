package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

// CredentialVerifier checks a presented credential against its stored form
type CredentialVerifier interface {
	Verify(stored, presented string) bool
	Hash(plain string) (string, error)
}

// BcryptVerifier is the only verifier used for every role. A stored value
// that is not a bcrypt hash never verifies.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Verify(stored, presented string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
}

func (v BcryptVerifier) Hash(plain string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type authService struct {
	repo     repositories.Repository
	db       *gorm.DB
	logger   *slog.Logger
	verifier CredentialVerifier
	activity activityRecorder
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, verifier CredentialVerifier) AuthService {
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	return &authService{
		repo:     repo,
		db:       db,
		logger:   logger,
		verifier: verifier,
		activity: activityRecorder{repo: repo, logger: logger},
	}
}

// Login accepts a username or an email. Every failure reports the same
// ErrUnauthorized so callers cannot tell which accounts exist.
func (s *authService) Login(ctx context.Context, username, credential string) (*models.SessionSnapshot, error) {
	username = strings.TrimSpace(username)
	s.logger.Info("Login attempt", "username", username)

	if username == "" || credential == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if !user.IsActive() {
		s.logger.Warn("Login rejected for inactive user", "user_id", user.ID)
		return nil, ErrUnauthorized
	}
	if !s.verifier.Verify(user.PasswordHash, credential) {
		s.logger.Warn("Login rejected", "user_id", user.ID)
		return nil, ErrUnauthorized
	}

	session, err := s.SessionForUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.activity.record(ctx, session, "login", "user", user.ID, "", map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})
	s.logger.Info("Login succeeded", "user_id", user.ID, "role", user.Role)
	return session, nil
}

func (s *authService) findUser(ctx context.Context, login string) (*models.User, error) {
	user, err := s.repo.User().GetByUsername(ctx, nil, login)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, storageError("get user", err)
	}

	user, err = s.repo.User().GetByEmail(ctx, nil, login)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, storageError("get user", err)
	}
	return user, nil
}

// SessionForUser builds the snapshot for an already authenticated user,
// resolving the teacher or student profile behind non-admin roles
func (s *authService) SessionForUser(ctx context.Context, user *models.User) (*models.SessionSnapshot, error) {
	if user == nil || !user.Role.IsValid() {
		return nil, ErrInvalidSession
	}
	if !user.IsActive() {
		return nil, ErrUnauthorized
	}

	session := &models.SessionSnapshot{
		Authenticated: true,
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
	}

	var err error
	switch user.Role {
	case models.RoleTeacher:
		var teacher *models.Teacher
		if teacher, err = s.repo.Teacher().GetByUserID(ctx, nil, user.ID); err == nil {
			session.EntityID = &teacher.ID
		}
	case models.RoleStudent:
		var student *models.Student
		if student, err = s.repo.Student().GetByUserID(ctx, nil, user.ID); err == nil {
			session.EntityID = &student.ID
		}
	}

	switch {
	case err == nil:
		return session, nil
	case repositories.IsNotFoundError(err):
		s.logger.Warn("User has no profile for role", "user_id", user.ID, "role", user.Role)
		return nil, ErrUnauthorized
	default:
		return nil, storageError("resolve profile", err)
	}
}

func (s *authService) HashCredential(plain string) (string, error) {
	if plain == "" {
		return "", NewValidationError("password", "is required", nil)
	}
	hash, err := s.verifier.Hash(plain)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", NewValidationError("password", "is too long", nil)
		}
		return "", err
	}
	return hash, nil
}
