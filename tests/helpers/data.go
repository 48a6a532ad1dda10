package helpers

import (
	"testing"
	"time"

	"github.com/hotelaria/opshub/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateTestLocation creates an active property for scope and aggregation tests
func CreateTestLocation(t *testing.T, db *gorm.DB, code, name string) uint64 {
	t.Helper()
	loc := models.Location{Code: code, Name: name, Active: true}
	if err := db.Create(&loc).Error; err != nil {
		t.Fatalf("Failed to create location %s: %v", code, err)
	}
	return loc.ID
}

// CreateTestAssignment creates the scope record the auth middleware resolves
func CreateTestAssignment(t *testing.T, db *gorm.DB, userID, role string, primaryLocation uint64, locations []uint64, departments []string) {
	t.Helper()
	assignment := models.UserAssignment{
		UserID:              userID,
		Role:                role,
		PrimaryLocationID:   primaryLocation,
		AssignedLocationIDs: datatypes.NewJSONSlice(locations),
		AllowedDepartments:  datatypes.NewJSONSlice(departments),
	}
	if err := db.Create(&assignment).Error; err != nil {
		t.Fatalf("Failed to create assignment for %s: %v", userID, err)
	}
}

// CreateTestInspection creates a minimal inspection with one area and the
// given items, recomputing nothing; metric columns stay at their defaults
// unless the caller fills them in.
func CreateTestInspection(t *testing.T, db *gorm.DB, locationID uint64, department, inspectorUserID, status string, items []models.InspectionItem) *models.Inspection {
	t.Helper()
	inspection := models.Inspection{
		LocationID:      locationID,
		Department:      department,
		InspectorUserID: inspectorUserID,
		InspectionDate:  time.Now().UTC().Truncate(24 * time.Hour),
		Status:          status,
		RowVersion:      1,
	}
	if err := db.Create(&inspection).Error; err != nil {
		t.Fatalf("Failed to create inspection: %v", err)
	}

	area := models.InspectionArea{
		InspectionID: inspection.ID,
		AreaName:     "Area General",
		AreaOrder:    1,
	}
	if err := db.Create(&area).Error; err != nil {
		t.Fatalf("Failed to create area: %v", err)
	}

	for i := range items {
		items[i].InspectionID = inspection.ID
		items[i].AreaID = area.ID
		if items[i].ItemOrder == 0 {
			items[i].ItemOrder = i + 1
		}
		if items[i].Descripcion == "" {
			items[i].Descripcion = "Item de prueba"
		}
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			t.Fatalf("Failed to create items: %v", err)
		}
	}

	inspection.Areas = []models.InspectionArea{area}
	inspection.Areas[0].Items = items
	return &inspection
}
