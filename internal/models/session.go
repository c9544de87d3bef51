package models

// SessionSnapshot is the authenticated caller identity handed to every
// gated operation. EntityID is the teacher id or student id for non-admin roles.
type SessionSnapshot struct {
	Authenticated bool     `json:"authenticated"`
	UserID        uint     `json:"user_id"`
	Username      string   `json:"username,omitempty"`
	Role          UserRole `json:"role"`
	EntityID      *uint    `json:"entity_id,omitempty"`
}

func (s *SessionSnapshot) IsAdmin() bool {
	return s != nil && s.Authenticated && s.Role == RoleAdmin
}

// OwnershipTarget names the owner ids a resource belongs to. A nil field
// means the resource has no ownership path for that role.
type OwnershipTarget struct {
	TeacherID *uint
	StudentID *uint
}
