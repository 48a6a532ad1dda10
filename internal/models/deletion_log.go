package models

import (
	"time"

	"gorm.io/datatypes"
)

// MinAcknowledgmentLen is the minimum operator-entered justification length
// (after trimming whitespace) required before a cascade delete executes.
const MinAcknowledgmentLen = 20

// InspectionDeletionLog records the audit acknowledgment and a full aggregate
// snapshot taken before an inspection cascade delete.
type InspectionDeletionLog struct {
	ID                 uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID       uint64         `gorm:"not null;index" json:"inspection_id"`
	DeletedBy          string         `gorm:"type:char(36);not null" json:"deleted_by"`
	DeletedByRole      string         `gorm:"size:50;not null" json:"deleted_by_role"`
	AcknowledgmentText string         `gorm:"type:text;not null" json:"acknowledgment_text"`
	SnapshotJSON       datatypes.JSON `gorm:"type:json" json:"snapshot_json"`
	DeletedAt          time.Time      `gorm:"autoCreateTime;index" json:"deleted_at"`
}

// TableName overrides the table name for InspectionDeletionLog
func (InspectionDeletionLog) TableName() string {
	return "deletion_log"
}
