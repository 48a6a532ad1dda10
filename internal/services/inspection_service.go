package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hotelaria/opshub/internal/lifecycle"
	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/scoring"
	"github.com/hotelaria/opshub/internal/storage"
	"github.com/hotelaria/opshub/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ItemInput is one checklist line at intake time, normally produced from a
// category template. Compliance/score arrive empty/0 unless the template
// pre-fills them.
type ItemInput struct {
	ItemOrder            int     `json:"item_order"`
	Descripcion          string  `json:"descripcion"`
	TipoDato             string  `json:"tipo_dato"`
	CumplimientoValor    string  `json:"cumplimiento_valor"`
	CumplimientoEditable bool    `json:"cumplimiento_editable"`
	CalifValor           float64 `json:"calif_valor"`
	CalifEditable        bool    `json:"calif_editable"`
	ComentariosValor     string  `json:"comentarios_valor"`
	ComentariosLibre     bool    `json:"comentarios_libre"`
}

// AreaInput is an ordered area with its ordered items.
type AreaInput struct {
	AreaName  string      `json:"area_name"`
	AreaOrder int         `json:"area_order"`
	Items     []ItemInput `json:"items"`
}

// CreateInspectionInput carries everything needed to persist one inspection
// aggregate.
type CreateInspectionInput struct {
	LocationID      uint64      `json:"location_id"`
	Department      string      `json:"department"`
	InspectorUserID string      `json:"inspector_user_id"`
	InspectorName   string      `json:"inspector_name"`
	InspectionDate  time.Time   `json:"inspection_date"`
	GeneralComments string      `json:"general_comments"`
	Areas           []AreaInput `json:"areas"`
}

// ItemDelta is one partial item update from an inspector. Nil fields are left
// untouched.
type ItemDelta struct {
	ItemID            uint64   `json:"item_id"`
	CumplimientoValor *string  `json:"cumplimiento_valor"`
	CalifValor        *float64 `json:"calif_valor"`
	ComentariosValor  *string  `json:"comentarios_valor"`
}

// CreateInspection persists the inspection, then its areas, then its items,
// inside one transaction: either the whole aggregate exists afterwards or
// nothing does. The create is retried once on transient storage conflicts.
func CreateInspection(db *gorm.DB, in CreateInspectionInput) (*models.Inspection, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	insp, err := createInspectionOnce(db, in)
	if err != nil && isTransient(err) {
		log.Printf("Inspection create hit transient storage error, retrying once: %v", err)
		insp, err = createInspectionOnce(db, in)
	}
	return insp, err
}

func createInspectionOnce(db *gorm.DB, in CreateInspectionInput) (*models.Inspection, error) {
	var created models.Inspection

	err := db.Transaction(func(tx *gorm.DB) error {
		var location models.Location
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			First(&location, in.LocationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Entity: "location", ID: fmt.Sprintf("%d", in.LocationID)}
			}
			return err
		}

		// Metrics are derived up front so the row never carries stale zeros
		// when a template pre-fills compliance values.
		staged := stageAreas(in.Areas)
		metrics := scoring.Recompute(staged)

		created = models.Inspection{
			LocationID:           in.LocationID,
			Department:           in.Department,
			InspectorUserID:      in.InspectorUserID,
			InspectorName:        in.InspectorName,
			InspectionDate:       in.InspectionDate,
			PropertyCode:         location.Code,
			PropertyName:         location.Name,
			Status:               models.StatusDraft,
			GeneralComments:      in.GeneralComments,
			TotalAreas:           metrics.TotalAreas,
			TotalItems:           metrics.TotalItems,
			ItemsCumple:          metrics.ItemsCumple,
			ItemsNoCumple:        metrics.ItemsNoCumple,
			ItemsNA:              metrics.ItemsNA,
			ItemsPending:         metrics.ItemsPending,
			CoveragePercentage:   metrics.CoveragePercentage,
			CompliancePercentage: metrics.CompliancePercentage,
			AverageScore:         metrics.AverageScore,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		// Areas before items: the items carry both foreign keys.
		for i := range staged {
			area := models.InspectionArea{
				InspectionID:    created.ID,
				AreaName:        staged[i].AreaName,
				AreaOrder:       staged[i].AreaOrder,
				CalculatedScore: metrics.AreaScores[i].Score,
			}
			if err := tx.Create(&area).Error; err != nil {
				return &types.PartialWriteError{InspectionID: created.ID, Stage: "areas", Err: err}
			}

			items := make([]models.InspectionItem, len(staged[i].Items))
			for j, item := range staged[i].Items {
				item.InspectionID = created.ID
				item.AreaID = area.ID
				items[j] = item
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return &types.PartialWriteError{InspectionID: created.ID, Stage: "items", Err: err}
				}
			}

			area.Items = items
			created.Areas = append(created.Areas, area)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// stageAreas converts intake inputs into unsaved model rows, preserving the
// caller-supplied ordering fields exactly.
func stageAreas(areas []AreaInput) []models.InspectionArea {
	staged := make([]models.InspectionArea, len(areas))
	for i, area := range areas {
		items := make([]models.InspectionItem, len(area.Items))
		for j, item := range area.Items {
			items[j] = models.InspectionItem{
				ItemOrder:            item.ItemOrder,
				Descripcion:          item.Descripcion,
				TipoDato:             item.TipoDato,
				CumplimientoValor:    item.CumplimientoValor,
				CumplimientoEditable: item.CumplimientoEditable,
				CalifValor:           item.CalifValor,
				CalifEditable:        item.CalifEditable,
				ComentariosValor:     item.ComentariosValor,
				ComentariosLibre:     item.ComentariosLibre,
			}
		}
		staged[i] = models.InspectionArea{
			AreaName:  area.AreaName,
			AreaOrder: area.AreaOrder,
			Items:     items,
		}
	}
	return staged
}

func validateCreateInput(in CreateInspectionInput) error {
	if in.LocationID == 0 {
		return &types.ValidationError{Field: "location_id", Message: "location is required"}
	}
	if in.Department == "" {
		return &types.ValidationError{Field: "department", Message: "department is required"}
	}
	if in.InspectorUserID == "" {
		return &types.ValidationError{Field: "inspector_user_id", Message: "inspector is required"}
	}
	if in.InspectionDate.IsZero() {
		return &types.ValidationError{Field: "inspection_date", Message: "inspection date is required"}
	}
	if len(in.Areas) == 0 {
		return &types.ValidationError{Field: "areas", Message: "at least one area is required"}
	}

	orders := make(map[int]struct{}, len(in.Areas))
	for _, area := range in.Areas {
		if area.AreaName == "" {
			return &types.ValidationError{Field: "area_name", Message: "area name is required"}
		}
		if _, dup := orders[area.AreaOrder]; dup {
			return &types.ValidationError{Field: "area_order", Message: fmt.Sprintf("duplicate area order %d", area.AreaOrder)}
		}
		orders[area.AreaOrder] = struct{}{}

		for _, item := range area.Items {
			if item.Descripcion == "" {
				return &types.ValidationError{Field: "descripcion", Message: "item description is required"}
			}
			if !models.ValidCompliance(item.CumplimientoValor) {
				return &types.ValidationError{Field: "cumplimiento_valor", Message: fmt.Sprintf("invalid compliance value %q", item.CumplimientoValor)}
			}
			if item.CalifValor < 0 || item.CalifValor > 10 {
				return &types.ValidationError{Field: "calif_valor", Message: "quality score must be between 0 and 10"}
			}
		}
	}
	return nil
}

// GetInspection returns the inspection with areas ordered, items grouped per
// area in order, and evidence annotated with short-lived signed URLs from the
// storage collaborator.
func GetInspection(db *gorm.DB, signer storage.Signer, id uint64) (*models.Inspection, error) {
	var insp models.Inspection
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Preload("Areas", func(db *gorm.DB) *gorm.DB {
			return db.Order("areas.area_order ASC")
		}).
		Preload("Areas.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("items.item_order ASC")
		}).
		Preload("Areas.Items.Evidences", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_evidences.slot ASC")
		}).
		First(&insp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Entity: "inspection", ID: fmt.Sprintf("%d", id)}
		}
		return nil, err
	}

	if signer != nil {
		for ai := range insp.Areas {
			for ii := range insp.Areas[ai].Items {
				for ei := range insp.Areas[ai].Items[ii].Evidences {
					ev := &insp.Areas[ai].Items[ii].Evidences[ei]
					url, err := signer.Sign(ev.StoragePath)
					if err != nil {
						log.Printf("Failed to sign evidence URL for %s: %v", ev.StoragePath, err)
						continue
					}
					ev.SignedURL = url
				}
			}
		}
	}

	return &insp, nil
}

// UpdateItems applies a batch of item deltas and optionally replaces the
// general comments, then recomputes and persists the aggregate metrics, all
// inside one transaction guarded by the caller-supplied row version. A stale
// version is rejected with an E_VERSION conflict instead of silently
// overwriting a concurrent editor's recompute.
func UpdateItems(db *gorm.DB, actor scope.Actor, inspectionID uint64, version uint64, deltas []ItemDelta, generalComments *string) (scoring.Metrics, error) {
	var metrics scoring.Metrics

	if len(deltas) == 0 && generalComments == nil {
		return metrics, &types.ValidationError{Field: "items", Message: "nothing to update"}
	}

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

		if insp.RowVersion != version {
			return fmt.Errorf("%s", types.VersionConflictPrefix)
		}
		if !lifecycle.Editable(insp.Status) {
			return &types.ValidationError{Field: "status", Message: fmt.Sprintf("inspection in status %q is frozen", insp.Status)}
		}
		if err := authorizeEdit(actor, &insp); err != nil {
			return err
		}

		for _, delta := range deltas {
			if err := applyItemDelta(tx, &insp, delta); err != nil {
				return err
			}
		}

		areas, err := loadAreasWithItems(tx, inspectionID)
		if err != nil {
			return err
		}
		metrics = scoring.Recompute(areas)

		for _, as := range metrics.AreaScores {
			if err := tx.Model(&models.InspectionArea{}).Where("id = ?", as.AreaID).
				Update("calculated_score", as.Score).Error; err != nil {
				return err
			}
		}

		updates := metricColumns(metrics)
		updates["row_version"] = insp.RowVersion + 1
		if generalComments != nil {
			updates["general_comments"] = *generalComments
		}

		result := tx.Model(&models.Inspection{}).
			Where("id = ? AND row_version = ?", inspectionID, insp.RowVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%s - inspection modified concurrently", types.VersionConflictPrefix)
		}

		return nil
	})

	return metrics, err
}

func applyItemDelta(tx *gorm.DB, insp *models.Inspection, delta ItemDelta) error {
	var item models.InspectionItem
	if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
		Where("id = ? AND inspection_id = ?", delta.ItemID, insp.ID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.NotFoundError{Entity: "item", ID: fmt.Sprintf("%d", delta.ItemID)}
		}
		return err
	}

	updates := make(map[string]interface{}, 3)

	if delta.CumplimientoValor != nil {
		if !item.CumplimientoEditable {
			return &types.ValidationError{Field: "cumplimiento_valor", Message: fmt.Sprintf("item %d compliance is not editable", item.ID)}
		}
		if !models.ValidCompliance(*delta.CumplimientoValor) {
			return &types.ValidationError{Field: "cumplimiento_valor", Message: fmt.Sprintf("invalid compliance value %q", *delta.CumplimientoValor)}
		}
		updates["cumplimiento_valor"] = *delta.CumplimientoValor
	}

	if delta.CalifValor != nil {
		if !item.CalifEditable {
			return &types.ValidationError{Field: "calif_valor", Message: fmt.Sprintf("item %d score is not editable", item.ID)}
		}
		if *delta.CalifValor < 0 || *delta.CalifValor > 10 {
			return &types.ValidationError{Field: "calif_valor", Message: "quality score must be between 0 and 10"}
		}
		updates["calif_valor"] = *delta.CalifValor
	}

	if delta.ComentariosValor != nil {
		if !item.ComentariosLibre {
			return &types.ValidationError{Field: "comentarios_valor", Message: fmt.Sprintf("item %d comments are not free-form", item.ID)}
		}
		updates["comentarios_valor"] = *delta.ComentariosValor
	}

	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&item).Updates(updates).Error
}

// TransitionStatus validates and applies a lifecycle transition. Entering
// completed stamps the completion time and recomputes metrics defensively so
// the stamped record never carries stale aggregates.
func TransitionStatus(db *gorm.DB, actor scope.Actor, inspectionID uint64, target string) (*models.Inspection, error) {
	var updated models.Inspection

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

		if err := lifecycle.Validate(insp.Status, target); err != nil {
			return err
		}
		if err := lifecycle.Authorize(actor.Role, actor.UserID, insp.InspectorUserID, target); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":      target,
			"row_version": insp.RowVersion + 1,
		}

		if lifecycle.ClearsCompletion(target) {
			updates["completed_at"] = nil
		}

		if lifecycle.StampsCompletion(target) {
			now := time.Now().UTC()
			updates["completed_at"] = now

			areas, err := loadAreasWithItems(tx, inspectionID)
			if err != nil {
				return err
			}
			metrics := scoring.Recompute(areas)
			for _, as := range metrics.AreaScores {
				if err := tx.Model(&models.InspectionArea{}).Where("id = ?", as.AreaID).
					Update("calculated_score", as.Score).Error; err != nil {
					return err
				}
			}
			for col, val := range metricColumns(metrics) {
				updates[col] = val
			}
		}

		result := tx.Model(&models.Inspection{}).
			Where("id = ? AND row_version = ?", inspectionID, insp.RowVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%s - inspection modified concurrently", types.VersionConflictPrefix)
		}

		return tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			First(&updated, inspectionID).Error
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteInspection cascades the aggregate away after recording the operator's
// audit acknowledgment and a full snapshot in the deletion log. The
// acknowledgment length is re-validated server-side; client gating alone is
// never trusted.
func DeleteInspection(db *gorm.DB, actor scope.Actor, inspectionID uint64, acknowledgment string) error {
	trimmed := trimAck(acknowledgment)
	if len(trimmed) < models.MinAcknowledgmentLen {
		return &types.ValidationError{
			Field:   "acknowledgment",
			Message: fmt.Sprintf("acknowledgment must be at least %d characters", models.MinAcknowledgmentLen),
		}
	}
	if !lifecycle.ReviewerRole(actor.Role) {
		return &types.ForbiddenError{Reason: "review authority required to delete inspections"}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var insp models.Inspection
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Areas", func(db *gorm.DB) *gorm.DB { return db.Order("areas.area_order ASC") }).
			Preload("Areas.Items", func(db *gorm.DB) *gorm.DB { return db.Order("items.item_order ASC") }).
			Preload("Areas.Items.Evidences").
			First(&insp, inspectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Entity: "inspection", ID: fmt.Sprintf("%d", inspectionID)}
			}
			return err
		}

		snapshot, err := json.Marshal(&insp)
		if err != nil {
			return err
		}

		entry := models.InspectionDeletionLog{
			InspectionID:       insp.ID,
			DeletedBy:          actor.UserID,
			DeletedByRole:      actor.Role,
			AcknowledgmentText: trimmed,
			SnapshotJSON:       snapshot,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		// The log row lands before the cascade executes; explicit child
		// deletes keep the cascade portable across dialects.
		if err := tx.Where("inspection_id = ?", insp.ID).Delete(&models.ItemEvidence{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inspection_id = ?", insp.ID).Delete(&models.InspectionItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inspection_id = ?", insp.ID).Delete(&models.InspectionArea{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Inspection{}, insp.ID).Error
	})
}

func loadAreasWithItems(tx *gorm.DB, inspectionID uint64) ([]models.InspectionArea, error) {
	var areas []models.InspectionArea
	err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
		Where("inspection_id = ?", inspectionID).
		Order("area_order ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("items.item_order ASC")
		}).
		Find(&areas).Error
	return areas, err
}

func metricColumns(m scoring.Metrics) map[string]interface{} {
	return map[string]interface{}{
		"total_areas":           m.TotalAreas,
		"total_items":           m.TotalItems,
		"items_cumple":          m.ItemsCumple,
		"items_no_cumple":       m.ItemsNoCumple,
		"items_na":              m.ItemsNA,
		"items_pending":         m.ItemsPending,
		"coverage_percentage":   m.CoveragePercentage,
		"compliance_percentage": m.CompliancePercentage,
		"average_score":         m.AverageScore,
	}
}

// authorizeEdit checks the actor against the inspection's ownership and
// department scope. Reviewers may edit any record pre-approval.
func authorizeEdit(actor scope.Actor, insp *models.Inspection) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleSupervisor:
		return nil
	case models.RoleDepartmentAdmin:
		for _, dept := range actor.AllowedDepartments {
			if equalsFold(dept, insp.Department) {
				return nil
			}
		}
		return &types.ForbiddenError{Reason: fmt.Sprintf("department %q is outside the assigned scope", insp.Department)}
	default:
		if actor.UserID == insp.InspectorUserID {
			return nil
		}
		return &types.ForbiddenError{Reason: "only the assigned inspector can edit this inspection"}
	}
}

func trimAck(s string) string {
	return strings.TrimSpace(s)
}

func equalsFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// isTransient classifies errors for the single create retry: anything that is
// not a domain error is assumed to be a transient storage conflict.
func isTransient(err error) bool {
	var ve *types.ValidationError
	var nfe *types.NotFoundError
	var fe *types.ForbiddenError
	return !errors.As(err, &ve) && !errors.As(err, &nfe) && !errors.As(err, &fe)
}
