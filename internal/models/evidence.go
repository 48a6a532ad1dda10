package models

import "time"

// Evidence slots per item. A second upload to an occupied slot replaces it.
const (
	EvidenceSlotMin = 1
	EvidenceSlotMax = 2
)

// ItemEvidence is photographic proof metadata for one checklist item slot.
// The binary itself lives in the external object store; only the metadata
// contract is persisted here.
type ItemEvidence struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID uint64 `gorm:"not null;index" json:"inspection_id"`
	ItemID       uint64 `gorm:"not null;index:idx_item_slot,unique" json:"item_id"`
	Slot         int    `gorm:"not null;index:idx_item_slot,unique" json:"slot"`

	StoragePath string    `gorm:"size:512;not null" json:"storage_path"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	FileSize    int64     `gorm:"not null;default:0" json:"file_size"`
	MimeType    string    `gorm:"size:100" json:"mime_type"`
	UploadedBy  string    `gorm:"type:char(36)" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`

	// SignedURL is resolved at read time by the storage collaborator,
	// never persisted.
	SignedURL string `gorm:"-" json:"signed_url,omitempty"`
}

// TableName overrides the table name for ItemEvidence
func (ItemEvidence) TableName() string {
	return "item_evidences"
}
