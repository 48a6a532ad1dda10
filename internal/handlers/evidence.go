package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hotelaria/opshub/internal/services"
	"github.com/hotelaria/opshub/internal/utils"
)

// AttachEvidence handles PUT /api/inspections/:id/items/:itemId/evidence/:slot
// @Summary Attach evidence
// @Description Register evidence metadata for an item slot; a second upload to an occupied slot replaces it
// @Tags Evidence
// @Accept json
// @Produce json
// @Param id path int true "Inspection ID"
// @Param itemId path int true "Item ID"
// @Param slot path int true "Evidence slot (1 or 2)"
// @Param body body services.EvidenceInput true "Evidence metadata"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /inspections/{id}/items/{itemId}/evidence/{slot} [put]
func (h *InspectionHandler) AttachEvidence(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, "Invalid inspection id", fiber.StatusBadRequest, "evidence.validation.id")
	}
	itemID, err := c.ParamsInt("itemId")
	if err != nil || itemID <= 0 {
		return utils.ErrorResponse(c, "Invalid item id", fiber.StatusBadRequest, "evidence.validation.item")
	}
	slot, err := c.ParamsInt("slot")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid evidence slot", fiber.StatusBadRequest, "evidence.validation.slot")
	}

	var body services.EvidenceInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "evidence.validation.input")
	}

	evidence, replacedPath, err := services.AttachEvidence(h.DB, actor, uint64(id), uint64(itemID), slot, body)
	if err != nil {
		return mapServiceError(c, err, "attachEvidence")
	}

	if h.Signer != nil {
		if url, err := h.Signer.Sign(evidence.StoragePath); err == nil {
			evidence.SignedURL = url
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"evidence":     evidence,
		"replacedPath": replacedPath,
	})
}
