package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hotelaria/opshub/internal/services"
	"github.com/hotelaria/opshub/internal/utils"
)

// ListInspections handles GET /api/inspections
// @Summary List inspections
// @Description List inspections visible to the actor's resolved scope, newest first
// @Tags Inspections
// @Accept json
// @Produce json
// @Param department query string false "Department filter (ALL for no narrowing)"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /inspections [get]
func (h *InspectionHandler) ListInspections(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	sc, err := resolveScope(h.DB, h.Catalog, actor, c.Query("department"))
	if err != nil {
		return mapServiceError(c, err, "listInspections")
	}

	list, err := services.ListInspections(h.DB, sc, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return mapServiceError(c, err, "listInspections")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"inspections":     list,
		"noAssignedScope": sc.Empty(),
	})
}

// GetAggregateStats handles GET /api/inspections/stats
// @Summary Dashboard statistics
// @Description Aggregate inspection statistics for the actor's resolved scope
// @Tags Inspections
// @Accept json
// @Produce json
// @Param department query string false "Department filter (ALL for no narrowing)"
// @Success 200 {object} services.AggregateStats
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /inspections/stats [get]
func (h *InspectionHandler) GetAggregateStats(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	sc, err := resolveScope(h.DB, h.Catalog, actor, c.Query("department"))
	if err != nil {
		return mapServiceError(c, err, "getAggregateStats")
	}

	stats, err := services.GetAggregateStats(h.DB, sc)
	if err != nil {
		return mapServiceError(c, err, "getAggregateStats")
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

// Health handles GET /api/health
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Router /health [get]
func (h *InspectionHandler) Health(c *fiber.Ctx) error {
	if h.Config == nil {
		return utils.ErrorResponse(c, "health not configured", fiber.StatusInternalServerError, "health")
	}
	result := services.HealthCheck(h.Config, h.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
