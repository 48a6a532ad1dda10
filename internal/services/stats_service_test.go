package services_test

import (
	"testing"
	"time"

	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/services"
	"gorm.io/gorm"
)

func seedInspection(t *testing.T, db *gorm.DB, locationID uint64, department, status string, avgScore float64, date time.Time) uint64 {
	t.Helper()
	insp := models.Inspection{
		LocationID:      locationID,
		Department:      department,
		InspectorUserID: "inspector-1",
		InspectionDate:  date,
		Status:          status,
		AverageScore:    avgScore,
	}
	if err := db.Create(&insp).Error; err != nil {
		t.Fatalf("Failed to seed inspection: %v", err)
	}
	return insp.ID
}

func TestListInspectionsOrderingAndPaging(t *testing.T) {
	db := setupTestDB(t)
	locID := createLocation(t, db, "HTL-01", "Hotel Centro")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInspection(t, db, locID, "RRHH", models.StatusDraft, 0, base)
	seedInspection(t, db, locID, "RRHH", models.StatusDraft, 0, base.AddDate(0, 0, 2))
	seedInspection(t, db, locID, "RRHH", models.StatusDraft, 0, base.AddDate(0, 0, 1))

	sc := scope.Result{AllLocations: true, LocationIDs: []uint64{locID}}
	list, err := services.ListInspections(db, sc, 2, 0)
	if err != nil {
		t.Fatalf("Failed to list inspections: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected page of 2, got %d", len(list))
	}
	if !list[0].InspectionDate.After(list[1].InspectionDate) {
		t.Errorf("Expected newest first, got %v then %v", list[0].InspectionDate, list[1].InspectionDate)
	}

	rest, err := services.ListInspections(db, sc, 2, 2)
	if err != nil {
		t.Fatalf("Failed to list second page: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("Expected 1 remaining inspection, got %d", len(rest))
	}
}

func TestListInspectionsAppliesScope(t *testing.T) {
	db := setupTestDB(t)
	locA := createLocation(t, db, "HTL-01", "Hotel Centro")
	locB := createLocation(t, db, "HTL-02", "Hotel Playa")

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInspection(t, db, locA, "RRHH", models.StatusDraft, 0, date)
	seedInspection(t, db, locA, "Housekeeping", models.StatusDraft, 0, date)
	seedInspection(t, db, locB, "RRHH", models.StatusDraft, 0, date)

	// Location restriction.
	sc := scope.Result{LocationIDs: []uint64{locA}}
	list, err := services.ListInspections(db, sc, 0, 0)
	if err != nil {
		t.Fatalf("Failed to list inspections: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 inspections at location A, got %d", len(list))
	}

	// Department restriction on top.
	sc = scope.Result{LocationIDs: []uint64{locA}, Departments: []string{"RRHH"}}
	list, err = services.ListInspections(db, sc, 0, 0)
	if err != nil {
		t.Fatalf("Failed to list inspections: %v", err)
	}
	if len(list) != 1 || list[0].Department != "RRHH" {
		t.Errorf("Expected a single RRHH inspection, got %d", len(list))
	}

	// Empty-by-permission short-circuits without touching storage.
	sc = scope.Result{NoLocations: true}
	list, err = services.ListInspections(db, sc, 0, 0)
	if err != nil {
		t.Fatalf("Failed to list with empty scope: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty page for empty scope, got %d", len(list))
	}
}

func TestGetAggregateStats(t *testing.T) {
	db := setupTestDB(t)
	locID := createLocation(t, db, "HTL-01", "Hotel Centro")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInspection(t, db, locID, "RRHH", models.StatusDraft, 9.9, base)
	seedInspection(t, db, locID, "RRHH", models.StatusCompleted, 8, base.AddDate(0, 0, 1))
	seedInspection(t, db, locID, "RRHH", models.StatusCompleted, 6, base.AddDate(0, 0, 2))
	seedInspection(t, db, locID, "RRHH", models.StatusApproved, 7, base.AddDate(0, 0, 3))

	stats, err := services.GetAggregateStats(db, scope.Result{AllLocations: true, LocationIDs: []uint64{locID}})
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}

	if stats.Total != 4 {
		t.Errorf("Expected total 4, got %d", stats.Total)
	}
	// Pending approval counts inspections sitting in completed.
	if stats.PendingApproval != 2 {
		t.Errorf("Expected 2 pending approval, got %d", stats.PendingApproval)
	}
	// Drafts are excluded from the average: (8+6+7)/3 = 7.
	if stats.AverageScore != 7 {
		t.Errorf("Expected average 7, got %v", stats.AverageScore)
	}
	if len(stats.Recent) != 4 {
		t.Errorf("Expected 4 recent inspections, got %d", len(stats.Recent))
	}
	if stats.NoAssignedScope {
		t.Error("Expected NoAssignedScope false for a populated scope")
	}
}

func TestFullAccessScopeExcludesInactiveLocations(t *testing.T) {
	db := setupTestDB(t)
	active := createLocation(t, db, "HTL-01", "Hotel Centro")
	inactive := models.Location{Code: "HTL-99", Name: "Hotel Cerrado", Active: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("Failed to create inactive location: %v", err)
	}

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInspection(t, db, active, "RRHH", models.StatusCompleted, 8, date)
	seedInspection(t, db, inactive.ID, "RRHH", models.StatusCompleted, 4, date)

	catalog, err := services.ActiveLocationIDs(db)
	if err != nil {
		t.Fatalf("Failed to load active locations: %v", err)
	}
	sc := scope.Resolve(scope.Actor{UserID: "admin-1", Role: models.RoleAdmin}, catalog, nil, "")

	list, err := services.ListInspections(db, sc, 0, 0)
	if err != nil {
		t.Fatalf("Failed to list inspections: %v", err)
	}
	if len(list) != 1 || list[0].LocationID != active {
		t.Fatalf("Expected only the active-location inspection, got %d rows", len(list))
	}

	stats, err := services.GetAggregateStats(db, sc)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Expected total 1 within the active catalog, got %d", stats.Total)
	}
	if stats.AverageScore != 8 {
		t.Errorf("Expected average 8 from the active location only, got %v", stats.AverageScore)
	}
}

func TestGetAggregateStatsEmptyScope(t *testing.T) {
	db := setupTestDB(t)
	locID := createLocation(t, db, "HTL-01", "Hotel Centro")
	seedInspection(t, db, locID, "RRHH", models.StatusCompleted, 8, time.Now())

	stats, err := services.GetAggregateStats(db, scope.Result{NoLocations: true})
	if err != nil {
		t.Fatalf("Failed to get stats for empty scope: %v", err)
	}
	if stats.Total != 0 || stats.PendingApproval != 0 || stats.AverageScore != 0 {
		t.Errorf("Expected zeroed stats, got %+v", stats)
	}
	if !stats.NoAssignedScope {
		t.Error("Expected NoAssignedScope to be flagged")
	}
	if stats.Recent == nil || len(stats.Recent) != 0 {
		t.Errorf("Expected empty recent slice, got %v", stats.Recent)
	}
}

func TestGetAggregateStatsNoReviewedInspections(t *testing.T) {
	db := setupTestDB(t)
	locID := createLocation(t, db, "HTL-01", "Hotel Centro")
	seedInspection(t, db, locID, "RRHH", models.StatusDraft, 5, time.Now())

	stats, err := services.GetAggregateStats(db, scope.Result{AllLocations: true, LocationIDs: []uint64{locID}})
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.AverageScore != 0 {
		t.Errorf("Expected average 0 with only drafts, got %v", stats.AverageScore)
	}
	if stats.Total != 1 {
		t.Errorf("Expected total 1, got %d", stats.Total)
	}
}
