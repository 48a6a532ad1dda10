package services

import (
	"errors"

	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ResolveActor reads the actor's assignment record into the resolver's view.
// An authenticated user without an assignment row is a valid business state;
// the caller decides how to surface it.
func ResolveActor(db *gorm.DB, userID string) (scope.Actor, error) {
	var assignment models.UserAssignment
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("user_id = ?", userID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scope.Actor{}, &types.NotFoundError{Entity: "user_assignment", ID: userID}
		}
		return scope.Actor{}, err
	}

	return scope.Actor{
		UserID:              assignment.UserID,
		Name:                assignment.DisplayName,
		Role:                assignment.Role,
		PrimaryLocationID:   assignment.PrimaryLocationID,
		AssignedLocationIDs: []uint64(assignment.AssignedLocationIDs),
		AllowedDepartments:  []string(assignment.AllowedDepartments),
	}, nil
}

// ActiveLocationIDs returns the catalog of active locations backing the
// full-access aggregation mode.
func ActiveLocationIDs(db *gorm.DB) ([]uint64, error) {
	var ids []uint64
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Model(&models.Location{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
