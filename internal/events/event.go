package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// Source identifies this service on every published event
	Source = "records-service"

	// Version of the event envelope
	Version = "1.0"
)

const (
	EventAttendanceMarked = "attendance.marked"
	EventGradeCreated     = "grade.created"
	EventGradeUpdated     = "grade.updated"
	EventGradeDeleted     = "grade.deleted"
)

// Event is the envelope for every domain event
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh id
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    Source,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type AttendanceMarkedData struct {
	RecordID  uint   `json:"record_id"`
	StudentID uint   `json:"student_id"`
	ClassID   uint   `json:"class_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	MarkedBy  uint   `json:"marked_by"`
}

type GradeChangedData struct {
	GradeID   uint    `json:"grade_id"`
	StudentID uint    `json:"student_id"`
	SubjectID uint    `json:"subject_id"`
	ClassID   *uint   `json:"class_id,omitempty"`
	Score     float64 `json:"score"`
	Letter    string  `json:"grade_letter"`
	ChangedBy uint    `json:"changed_by"`
}
