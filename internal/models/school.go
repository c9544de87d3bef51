package models

import (
	"time"
)

// Class owns zero or more students and subjects. Removing the owning
// teacher leaves the class unassigned.
type Class struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:50"`
	Year      int    `json:"year" gorm:"not null"`
	TeacherID *uint  `json:"teacher_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Teacher *Teacher `json:"teacher,omitempty" gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL"`
}

func (Class) TableName() string {
	return "classes"
}

type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
)

type Student struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UserID      *uint         `json:"user_id" gorm:"uniqueIndex"`
	Name        string        `json:"name" gorm:"not null;size:100"`
	Gender      string        `json:"gender" gorm:"size:10"`
	DateOfBirth *time.Time    `json:"dob" gorm:"column:dob;type:date"`
	Email       string        `json:"email" gorm:"size:100"`
	Contact     string        `json:"contact" gorm:"size:20"`
	Address     string        `json:"address" gorm:"type:text"`
	ClassID     *uint         `json:"class_id" gorm:"index"`
	Status      StudentStatus `json:"status" gorm:"not null;size:20;default:active;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Deleting a class unassigns its students, it never deletes them
	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID;constraint:OnDelete:SET NULL"`
	User  *User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (Student) TableName() string {
	return "students"
}

type Subject struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:100"`
	ClassID uint   `json:"class_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`
}

func (Subject) TableName() string {
	return "subjects"
}
