package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     *uint          `json:"user_id" gorm:"index"`
	Action     string         `json:"action" gorm:"not null;size:100;index"`
	Resource   string         `json:"resource" gorm:"size:50"`
	ResourceID *uint          `json:"resource_id"`
	Details    datatypes.JSON `json:"details" gorm:"type:jsonb"`
	Timestamp  time.Time      `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
