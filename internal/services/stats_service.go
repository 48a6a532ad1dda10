package services

import (
	"database/sql"
	"math"

	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	recentCount      = 5
)

// AggregateStats is the dashboard summary for a resolved scope.
type AggregateStats struct {
	Total           int64               `json:"total"`
	PendingApproval int64               `json:"pendingApproval"`
	AverageScore    float64             `json:"averageScore"`
	Recent          []models.Inspection `json:"recent"`
	// NoAssignedScope tells the caller the empty result is a permission
	// outcome, not an absence of data.
	NoAssignedScope bool `json:"noAssignedScope,omitempty"`
}

// ListInspections returns the inspections visible to the resolved scope,
// newest first. An empty-by-permission scope short-circuits to an empty page
// without touching storage.
func ListInspections(db *gorm.DB, sc scope.Result, limit, offset int) ([]models.Inspection, error) {
	if sc.Empty() {
		return []models.Inspection{}, nil
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.Inspection
	err := scopedQuery(db, sc).
		Order("inspection_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetAggregateStats computes the dashboard aggregates for the resolved scope.
// Draft inspections are excluded from the average: their metrics are still
// moving. Pending approval counts inspections sitting in completed.
func GetAggregateStats(db *gorm.DB, sc scope.Result) (AggregateStats, error) {
	var stats AggregateStats

	if sc.Empty() {
		stats.Recent = []models.Inspection{}
		stats.NoAssignedScope = true
		return stats, nil
	}

	if err := scopedQuery(db, sc).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := scopedQuery(db, sc).
		Where("status = ?", models.StatusCompleted).
		Count(&stats.PendingApproval).Error; err != nil {
		return stats, err
	}

	var avg sql.NullFloat64
	if err := scopedQuery(db, sc).
		Where("status <> ?", models.StatusDraft).
		Select("AVG(average_score)").
		Scan(&avg).Error; err != nil {
		return stats, err
	}
	if avg.Valid {
		stats.AverageScore = math.Round(avg.Float64*100) / 100
	}

	stats.Recent = []models.Inspection{}
	if err := scopedQuery(db, sc).
		Order("inspection_date DESC, id DESC").
		Limit(recentCount).
		Find(&stats.Recent).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

// scopedQuery applies the resolved location/department scope to a base
// inspections query. All list/statistics entry points filter through here
// rather than re-deriving scope locally.
func scopedQuery(db *gorm.DB, sc scope.Result) *gorm.DB {
	q := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Model(&models.Inspection{})

	if db.Dialector.Name() == "mysql" {
		q = q.Clauses(hints.UseIndex("idx_inspections_location"))
	}

	// Full-access scopes are pinned to the active catalog too: Resolve
	// fills LocationIDs with it for every role, so inspections at
	// deactivated locations fall out of listings and aggregates.
	q = q.Where("location_id IN ?", sc.LocationIDs)
	if sc.Departments != nil {
		q = q.Where("department IN ?", sc.Departments)
	}
	return q
}
