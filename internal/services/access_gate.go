package services

import (
	"fmt"
	"slices"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Role sets used by the services
var (
	adminOnly  = []models.UserRole{models.RoleAdmin}
	staffRoles = []models.UserRole{models.RoleAdmin, models.RoleTeacher}
	anyRole    = []models.UserRole{models.RoleAdmin, models.RoleTeacher, models.RoleStudent}
)

type accessGate struct{}

// NewAccessControlGate returns the stateless gate
func NewAccessControlGate() AccessControlGate {
	return accessGate{}
}

// Authorize checks the role claim and, when target is non-nil, that a
// teacher or student session owns the target. Admins are never
// ownership-scoped. A wrong role or owner is a Denied decision, only a
// malformed session is an error.
func (accessGate) Authorize(session *models.SessionSnapshot, requiredRoles []models.UserRole, target *models.OwnershipTarget) (Decision, error) {
	if session == nil {
		return Denied, fmt.Errorf("%w: missing session", ErrInvalidSession)
	}
	if !session.Authenticated {
		return Denied, nil
	}
	if !session.Role.IsValid() {
		return Denied, fmt.Errorf("%w: unknown role %q", ErrInvalidSession, session.Role)
	}
	if session.Role != models.RoleAdmin && session.EntityID == nil {
		return Denied, fmt.Errorf("%w: %s session has no owning entity", ErrInvalidSession, session.Role)
	}

	if !slices.Contains(requiredRoles, session.Role) {
		return Denied, nil
	}

	if target == nil || session.Role == models.RoleAdmin {
		return Allowed, nil
	}

	var owner *uint
	switch session.Role {
	case models.RoleTeacher:
		owner = target.TeacherID
	case models.RoleStudent:
		owner = target.StudentID
	}

	if owner == nil || *owner != *session.EntityID {
		return Denied, nil
	}
	return Allowed, nil
}
