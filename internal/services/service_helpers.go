package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/academic-records-service/internal/events"
	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

// authorize runs the gate and converts a denial into a PermissionError.
// Logging the denial is done here, not in the gate.
func authorize(ctx context.Context, gate AccessControlGate, logger *slog.Logger, session *models.SessionSnapshot, roles []models.UserRole, target *models.OwnershipTarget, action, resource string, resourceID uint) error {
	decision, err := gate.Authorize(session, roles, target)
	if err != nil {
		logger.WarnContext(ctx, "Rejected malformed session", "action", action, "resource", resource, "error", err)
		return err
	}
	if decision == Allowed {
		return nil
	}

	reason := "role not permitted"
	switch {
	case !session.Authenticated:
		reason = "not authenticated"
	case slices.Contains(roles, session.Role):
		reason = "not the owner"
	}

	logger.WarnContext(ctx, "Authorization denied",
		"user_id", session.UserID,
		"role", session.Role,
		"action", action,
		"resource", resource,
		"resource_id", resourceID,
		"reason", reason)

	return NewPermissionError(session, resource, resourceID, action, reason)
}

// requireEnrolled rejects ledger writes naming a class the student is not in
func requireEnrolled(student *models.Student, classID uint) error {
	if student.ClassID == nil || *student.ClassID != classID {
		return NewValidationError("student_id", fmt.Sprintf("is not enrolled in class %d", classID), student.ID)
	}
	return nil
}

// ownershipResolver loads the owner ids a gated resource belongs to
type ownershipResolver struct {
	repo repositories.Repository
}

func (o ownershipResolver) class(ctx context.Context, classID uint) (*models.Class, *models.OwnershipTarget, error) {
	class, err := o.repo.Class().GetByID(ctx, nil, classID)
	if err != nil {
		return nil, nil, lookupError("class", classID, err)
	}
	return class, &models.OwnershipTarget{TeacherID: class.TeacherID}, nil
}

// student resolves the student itself and the teacher owning their class
func (o ownershipResolver) student(ctx context.Context, studentID uint) (*models.Student, *models.OwnershipTarget, error) {
	student, err := o.repo.Student().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, nil, lookupError("student", studentID, err)
	}

	target := &models.OwnershipTarget{StudentID: &student.ID}
	if student.ClassID != nil {
		class, err := o.repo.Class().GetByID(ctx, nil, *student.ClassID)
		switch {
		case err == nil:
			target.TeacherID = class.TeacherID
		case !repositories.IsNotFoundError(err):
			return nil, nil, storageError("get class", err)
		}
	}
	return student, target, nil
}

// grade prefers the owner of the grade's class and falls back to the
// recorded teacher when the class was removed
func (o ownershipResolver) grade(ctx context.Context, grade *models.GradeRecord) (*models.OwnershipTarget, error) {
	target := &models.OwnershipTarget{StudentID: &grade.StudentID, TeacherID: grade.TeacherID}
	if grade.ClassID == nil {
		return target, nil
	}

	class, err := o.repo.Class().GetByID(ctx, nil, *grade.ClassID)
	switch {
	case err == nil:
		target.TeacherID = class.TeacherID
	case !repositories.IsNotFoundError(err):
		return nil, storageError("get class", err)
	}
	return target, nil
}

// ownedClassIDs returns the class ids a teacher session is scoped to, or nil
// for sessions that see everything
func (o ownershipResolver) ownedClassIDs(ctx context.Context, session *models.SessionSnapshot) ([]uint, error) {
	if session.Role != models.RoleTeacher || session.EntityID == nil {
		return nil, nil
	}

	classes, err := o.repo.Class().ListByTeacher(ctx, nil, *session.EntityID)
	if err != nil {
		return nil, storageError("list teacher classes", err)
	}

	ids := make([]uint, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// activityRecorder writes the audit trail and publishes domain events after
// a successful mutation. Neither failure is surfaced to the caller.
type activityRecorder struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func (r activityRecorder) record(ctx context.Context, session *models.SessionSnapshot, action, resource string, resourceID uint, eventType string, data interface{}) {
	details, err := json.Marshal(data)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to encode audit details", "action", action, "error", err)
		details = []byte("{}")
	}

	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		Details:    datatypes.JSON(details),
	}
	if session != nil {
		userID := session.UserID
		entry.UserID = &userID
	}

	if err := r.repo.Audit().Create(ctx, nil, entry); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write audit log", "action", action, "resource_id", resourceID, "error", err)
	}

	if r.publisher == nil || eventType == "" {
		return
	}
	if err := r.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish event", "type", eventType, "resource_id", resourceID, "error", err)
	}
}

func actorID(session *models.SessionSnapshot) uint {
	if session == nil {
		return 0
	}
	return session.UserID
}
