package services

import (
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/hotelaria/opshub/internal/lifecycle"
	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// EvidenceInput is the metadata contract for one uploaded evidence binary.
// The binary itself goes to the external object store under the returned
// storage path.
type EvidenceInput struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// AttachEvidence associates evidence metadata with an item slot. A second
// upload to an occupied slot replaces the record in place; the replaced
// storage path is returned so the caller can garbage-collect the old blob.
// Evidence never participates in scoring.
func AttachEvidence(db *gorm.DB, actor scope.Actor, inspectionID, itemID uint64, slot int, in EvidenceInput) (*models.ItemEvidence, string, error) {
	if slot < models.EvidenceSlotMin || slot > models.EvidenceSlotMax {
		return nil, "", &types.ValidationError{Field: "slot", Message: fmt.Sprintf("slot must be %d or %d", models.EvidenceSlotMin, models.EvidenceSlotMax)}
	}
	if in.FileName == "" {
		return nil, "", &types.ValidationError{Field: "file_name", Message: "file name is required"}
	}
	if in.FileSize <= 0 {
		return nil, "", &types.ValidationError{Field: "file_size", Message: "file size must be positive"}
	}

	var saved models.ItemEvidence
	var replacedPath string

	err := db.Transaction(func(tx *gorm.DB) error {
		var insp models.Inspection
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&insp, inspectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Entity: "inspection", ID: fmt.Sprintf("%d", inspectionID)}
			}
			return err
		}
		if !lifecycle.Editable(insp.Status) {
			return &types.ValidationError{Field: "status", Message: fmt.Sprintf("inspection in status %q is frozen", insp.Status)}
		}
		if err := authorizeEdit(actor, &insp); err != nil {
			return err
		}

		var item models.InspectionItem
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Where("id = ? AND inspection_id = ?", itemID, inspectionID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Entity: "item", ID: fmt.Sprintf("%d", itemID)}
			}
			return err
		}

		storagePath := fmt.Sprintf("inspections/%d/items/%d/slot%d/%s%s",
			inspectionID, itemID, slot, uuid.NewString(), path.Ext(in.FileName))

		var existing models.ItemEvidence
		err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Where("item_id = ? AND slot = ?", itemID, slot).
			First(&existing).Error
		switch {
		case err == nil:
			replacedPath = existing.StoragePath
			updates := map[string]interface{}{
				"storage_path": storagePath,
				"file_name":    in.FileName,
				"file_size":    in.FileSize,
				"mime_type":    in.MimeType,
				"uploaded_by":  actor.UserID,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
			saved = existing
			saved.StoragePath = storagePath
			saved.FileName = in.FileName
			saved.FileSize = in.FileSize
			saved.MimeType = in.MimeType
			saved.UploadedBy = actor.UserID
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = models.ItemEvidence{
				InspectionID: inspectionID,
				ItemID:       itemID,
				Slot:         slot,
				StoragePath:  storagePath,
				FileName:     in.FileName,
				FileSize:     in.FileSize,
				MimeType:     in.MimeType,
				UploadedBy:   actor.UserID,
			}
			return tx.Create(&saved).Error

		default:
			return err
		}
	})
	if err != nil {
		return nil, "", err
	}

	return &saved, replacedPath, nil
}
