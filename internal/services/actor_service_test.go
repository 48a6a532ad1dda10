package services_test

import (
	"errors"
	"testing"

	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/services"
	"github.com/hotelaria/opshub/internal/types"
	"gorm.io/datatypes"
)

func TestResolveActor(t *testing.T) {
	db := setupTestDB(t)

	assignment := models.UserAssignment{
		UserID:              "user-1",
		DisplayName:         "Ana García",
		Role:                models.RoleDepartmentAdmin,
		PrimaryLocationID:   3,
		AssignedLocationIDs: datatypes.NewJSONSlice([]uint64{1, 2}),
		AllowedDepartments:  datatypes.NewJSONSlice([]string{"RRHH"}),
	}
	if err := db.Create(&assignment).Error; err != nil {
		t.Fatalf("Failed to create assignment: %v", err)
	}

	actor, err := services.ResolveActor(db, "user-1")
	if err != nil {
		t.Fatalf("Failed to resolve actor: %v", err)
	}
	if actor.Role != models.RoleDepartmentAdmin || actor.Name != "Ana García" {
		t.Errorf("Unexpected actor: %+v", actor)
	}
	if len(actor.AssignedLocationIDs) != 2 || actor.PrimaryLocationID != 3 {
		t.Errorf("Expected locations {1,2} primary 3, got %v primary %d", actor.AssignedLocationIDs, actor.PrimaryLocationID)
	}
	if len(actor.AllowedDepartments) != 1 || actor.AllowedDepartments[0] != "RRHH" {
		t.Errorf("Expected departments [RRHH], got %v", actor.AllowedDepartments)
	}
}

func TestResolveActorMissingAssignment(t *testing.T) {
	db := setupTestDB(t)

	_, err := services.ResolveActor(db, "nobody")
	var notFoundErr *types.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestActiveLocationIDs(t *testing.T) {
	db := setupTestDB(t)

	active := createLocation(t, db, "HTL-01", "Hotel Centro")
	inactive := models.Location{Code: "HTL-02", Name: "Hotel Cerrado", Active: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("Failed to create inactive location: %v", err)
	}

	ids, err := services.ActiveLocationIDs(db)
	if err != nil {
		t.Fatalf("Failed to list active locations: %v", err)
	}
	if len(ids) != 1 || ids[0] != active {
		t.Errorf("Expected only the active location %d, got %v", active, ids)
	}
}
