package models

import (
	"time"
)

// Inspection statuses.
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// Tri-state compliance values. Empty means the item has not been evaluated yet.
const (
	CompliancePending  = ""
	ComplianceCumple   = "Cumple"
	ComplianceNoCumple = "No Cumple"
	ComplianceNA       = "N/A"
)

// ValidCompliance reports whether v is inside the tri-state set (or pending).
func ValidCompliance(v string) bool {
	switch v {
	case CompliancePending, ComplianceCumple, ComplianceNoCumple, ComplianceNA:
		return true
	}
	return false
}

// Inspection is one audit event against a property/department on a given date.
// The metric columns are a denormalized cache rewritten atomically with every
// item batch update; they are never independently mutated.
type Inspection struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	LocationID      uint64    `gorm:"not null;index:idx_inspections_location" json:"location_id"`
	Department      string    `gorm:"size:100;not null;index" json:"department"`
	InspectorUserID string    `gorm:"type:char(36);not null;index" json:"inspector_user_id"`
	InspectorName   string    `gorm:"size:255" json:"inspector_name"`
	InspectionDate  time.Time `gorm:"not null" json:"inspection_date"`
	PropertyCode    string    `gorm:"size:32" json:"property_code"`
	PropertyName    string    `gorm:"size:255" json:"property_name"`
	Status          string    `gorm:"size:20;not null;default:draft;index" json:"status"`

	TotalAreas           int     `gorm:"not null;default:0" json:"total_areas"`
	TotalItems           int     `gorm:"not null;default:0" json:"total_items"`
	ItemsCumple          int     `gorm:"not null;default:0" json:"items_cumple"`
	ItemsNoCumple        int     `gorm:"not null;default:0" json:"items_no_cumple"`
	ItemsNA              int     `gorm:"column:items_na;not null;default:0" json:"items_na"`
	ItemsPending         int     `gorm:"not null;default:0" json:"items_pending"`
	CoveragePercentage   int     `gorm:"not null;default:0" json:"coverage_percentage"`
	CompliancePercentage int     `gorm:"not null;default:0" json:"compliance_percentage"`
	AverageScore         float64 `gorm:"not null;default:0" json:"average_score"`

	GeneralComments string `gorm:"type:text" json:"general_comments"`

	// RowVersion is the optimistic concurrency token, bumped on every
	// successful write. Stale writers get an E_VERSION conflict.
	RowVersion uint64 `gorm:"not null;default:0" json:"row_version"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Areas []InspectionArea `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"areas,omitempty"`
}

// TableName overrides the table name for Inspection
func (Inspection) TableName() string {
	return "inspections"
}

// InspectionArea is a named grouping of checklist items within an inspection.
// AreaOrder is unique within an inspection and preserved exactly as supplied.
type InspectionArea struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID    uint64  `gorm:"not null;index;index:idx_area_order,unique" json:"inspection_id"`
	AreaName        string  `gorm:"size:255;not null" json:"area_name"`
	AreaOrder       int     `gorm:"not null;index:idx_area_order,unique" json:"area_order"`
	CalculatedScore float64 `gorm:"not null;default:0" json:"calculated_score"`

	Items []InspectionItem `gorm:"foreignKey:AreaID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName overrides the table name for InspectionArea
func (InspectionArea) TableName() string {
	return "areas"
}

// InspectionItem is one checklist line. Descripcion and the foreign keys are
// immutable after creation; only the evaluation fields mutate.
type InspectionItem struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID uint64 `gorm:"not null;index" json:"inspection_id"`
	AreaID       uint64 `gorm:"not null;index" json:"area_id"`
	ItemOrder    int    `gorm:"not null" json:"item_order"`

	Descripcion string `gorm:"type:text;not null" json:"descripcion"`
	TipoDato    string `gorm:"size:50" json:"tipo_dato"`

	CumplimientoValor    string  `gorm:"size:20;not null;default:''" json:"cumplimiento_valor"`
	CumplimientoEditable bool    `gorm:"not null" json:"cumplimiento_editable"`
	CalifValor           float64 `gorm:"not null;default:0" json:"calif_valor"`
	CalifEditable        bool    `gorm:"not null" json:"calif_editable"`
	ComentariosValor     string  `gorm:"type:text" json:"comentarios_valor"`
	ComentariosLibre     bool    `gorm:"not null" json:"comentarios_libre"`

	Evidences []ItemEvidence `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"evidences,omitempty"`
}

// TableName overrides the table name for InspectionItem
func (InspectionItem) TableName() string {
	return "items"
}
