package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hotelaria/opshub/internal/config"
	"github.com/hotelaria/opshub/internal/services"
	"github.com/hotelaria/opshub/internal/storage"
	"github.com/hotelaria/opshub/internal/template"
	"github.com/hotelaria/opshub/internal/types"
	"github.com/hotelaria/opshub/internal/utils"
	"gorm.io/gorm"
)

// InspectionHandler handles inspection routes
type InspectionHandler struct {
	DB      *gorm.DB
	Signer  storage.Signer
	Catalog *template.Catalog
	Config  *config.Config
}

// CreateInspection handles POST /api/inspections
// @Summary Create inspection
// @Description Create an inspection from the category template, with areas and items persisted in one transaction
// @Tags Inspections
// @Accept json
// @Produce json
// @Param body body object true "Inspection intake"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /inspections [post]
func (h *InspectionHandler) CreateInspection(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var body struct {
		LocationID      uint64                            `json:"location_id"`
		Department      string                            `json:"department"`
		InspectionDate  string                            `json:"inspection_date"`
		GeneralComments string                            `json:"general_comments"`
		Areas           types.FlexList[services.AreaInput] `json:"areas"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "inspections.validation.input")
	}

	inspectionDate, err := time.Parse("2006-01-02", body.InspectionDate)
	if err != nil {
		return utils.ErrorResponse(c, "inspection_date must be YYYY-MM-DD", fiber.StatusBadRequest, "inspections.validation.input")
	}

	department := body.Department
	areas := body.Areas.Slice()
	if len(areas) == 0 {
		// Template-driven intake: the category selects the checklist.
		canonical, ok := h.Catalog.CanonicalCategory(body.Department)
		if !ok {
			return utils.ErrorResponse(c, "Unknown inspection category: "+body.Department, fiber.StatusBadRequest, "inspections.validation.category")
		}
		department = canonical
		templates, _ := h.Catalog.ForCategory(canonical)
		areas = areasFromTemplates(templates)
	}

	insp, err := services.CreateInspection(h.DB, services.CreateInspectionInput{
		LocationID:      body.LocationID,
		Department:      department,
		InspectorUserID: actor.UserID,
		InspectorName:   actor.Name,
		InspectionDate:  inspectionDate,
		GeneralComments: body.GeneralComments,
		Areas:           areas,
	})
	if err != nil {
		return mapServiceError(c, err, "createInspection")
	}

	return c.Status(fiber.StatusCreated).JSON(insp)
}

// GetInspection handles GET /api/inspections/:id
// @Summary Get inspection
// @Description Get an inspection with ordered areas, items and signed evidence URLs
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path int true "Inspection ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /inspections/{id} [get]
func (h *InspectionHandler) GetInspection(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, "Invalid inspection id", fiber.StatusBadRequest, "inspections.validation.id")
	}

	insp, err := services.GetInspection(h.DB, h.Signer, uint64(id))
	if err != nil {
		return mapServiceError(c, err, "getInspection")
	}

	sc, err := resolveScope(h.DB, h.Catalog, actor, "")
	if err != nil {
		return mapServiceError(c, err, "getInspection")
	}
	// Out-of-scope records read as missing, not forbidden.
	if !sc.AllowsLocation(insp.LocationID) || !sc.AllowsDepartment(insp.Department) {
		return utils.NotFoundResponse(c, "Inspection not found")
	}

	return c.Status(fiber.StatusOK).JSON(insp)
}

// UpdateItems handles POST /api/inspections/:id/items
// @Summary Update items
// @Description Apply a batch of item deltas and recompute aggregate metrics in one version-guarded transaction
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path int true "Inspection ID"
// @Param body body object true "Item deltas and row version"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /inspections/{id}/items [post]
func (h *InspectionHandler) UpdateItems(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, "Invalid inspection id", fiber.StatusBadRequest, "inspections.validation.id")
	}

	var body struct {
		Version         types.FlexUint64                   `json:"version"`
		Items           types.FlexList[services.ItemDelta] `json:"items"`
		GeneralComments *string                            `json:"general_comments"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "inspections.validation.input")
	}

	metrics, err := services.UpdateItems(h.DB, actor, uint64(id), body.Version.Uint64(), body.Items.Slice(), body.GeneralComments)
	if err != nil {
		return mapServiceError(c, err, "updateItems")
	}

	return utils.MutationSuccessResponse(c, body.Version.Uint64()+1, metrics)
}

// TransitionStatus handles POST /api/inspections/:id/status
// @Summary Transition status
// @Description Apply a lifecycle transition (draft→completed→approved/rejected, rejected→draft)
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path int true "Inspection ID"
// @Param body body object true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /inspections/{id}/status [post]
func (h *InspectionHandler) TransitionStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, "Invalid inspection id", fiber.StatusBadRequest, "inspections.validation.id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "inspections.validation.input")
	}

	insp, err := services.TransitionStatus(h.DB, actor, uint64(id), body.Status)
	if err != nil {
		return mapServiceError(c, err, "transitionStatus")
	}

	return c.Status(fiber.StatusOK).JSON(insp)
}

// DeleteInspection handles DELETE /api/inspections/:id
// @Summary Delete inspection
// @Description Cascade delete an inspection after recording the audit acknowledgment
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path int true "Inspection ID"
// @Param body body object true "Audit acknowledgment (min 20 characters)"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /inspections/{id} [delete]
func (h *InspectionHandler) DeleteInspection(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, "Invalid inspection id", fiber.StatusBadRequest, "inspections.validation.id")
	}

	var body struct {
		Acknowledgment string `json:"acknowledgment"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "inspections.validation.input")
	}

	if err := services.DeleteInspection(h.DB, actor, uint64(id), body.Acknowledgment); err != nil {
		return mapServiceError(c, err, "deleteInspection")
	}

	return utils.MutationSuccessResponse(c, 0, fiber.Map{"deleted": id})
}

// areasFromTemplates expands a category's area templates into intake inputs,
// numbering orders from 1 in catalog order.
func areasFromTemplates(templates []template.AreaTemplate) []services.AreaInput {
	areas := make([]services.AreaInput, len(templates))
	for i, at := range templates {
		items := make([]services.ItemInput, len(at.Items))
		for j, it := range at.Items {
			items[j] = services.ItemInput{
				ItemOrder:            j + 1,
				Descripcion:          it.Descripcion,
				TipoDato:             it.TipoDato,
				CumplimientoValor:    it.CumplimientoInicial,
				CumplimientoEditable: it.CumplimientoEditable,
				CalifValor:           it.CalifInicial,
				CalifEditable:        it.CalifEditable,
				ComentariosLibre:     it.ComentariosLibre,
			}
		}
		areas[i] = services.AreaInput{
			AreaName:  at.AreaName,
			AreaOrder: i + 1,
			Items:     items,
		}
	}
	return areas
}
