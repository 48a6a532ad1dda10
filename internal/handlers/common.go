package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hotelaria/opshub/internal/middleware"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/services"
	"github.com/hotelaria/opshub/internal/template"
	"github.com/hotelaria/opshub/internal/types"
	"github.com/hotelaria/opshub/internal/utils"
	"gorm.io/gorm"
)

// mapServiceError translates the service error taxonomy into the standard
// response envelope.
func mapServiceError(c *fiber.Ctx, err error, errorType string) error {
	if strings.Contains(err.Error(), types.VersionConflictPrefix) {
		return utils.VersionErrorResponse(c)
	}

	var ve *types.ValidationError
	if errors.As(err, &ve) {
		return utils.ErrorResponse(c, ve.Error(), fiber.StatusBadRequest, errorType+".validation")
	}

	var nfe *types.NotFoundError
	if errors.As(err, &nfe) {
		return utils.NotFoundResponse(c, nfe.Error())
	}

	var fe *types.ForbiddenError
	if errors.As(err, &fe) {
		return utils.ErrorResponse(c, fe.Error(), fiber.StatusForbidden, errorType+".forbidden")
	}

	var ite *types.InvalidTransitionError
	if errors.As(err, &ite) {
		return utils.ErrorResponse(c, ite.Error(), fiber.StatusConflict, errorType+".transition")
	}

	var pwe *types.PartialWriteError
	if errors.As(err, &pwe) {
		return utils.ErrorResponse(c, pwe.Error(), fiber.StatusInternalServerError, errorType+".partialWrite")
	}

	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// requireActor pulls the resolved actor out of the request context.
func requireActor(c *fiber.Ctx) (scope.Actor, error) {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return scope.Actor{}, utils.ErrorResponse(c, "No resolved actor on request", fiber.StatusForbidden, "inspections.actor")
	}
	return actor, nil
}

// resolveScope runs the actor through the pure resolver against the current
// location catalog and the canonical department catalog.
func resolveScope(db *gorm.DB, catalog *template.Catalog, actor scope.Actor, requestedDepartment string) (scope.Result, error) {
	activeIDs, err := services.ActiveLocationIDs(db)
	if err != nil {
		return scope.Result{}, err
	}
	return scope.Resolve(actor, activeIDs, catalog.Categories(), requestedDepartment), nil
}
