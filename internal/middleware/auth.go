package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/hotelaria/opshub/internal/config"
	"github.com/hotelaria/opshub/internal/scope"
	"github.com/hotelaria/opshub/internal/services"
	"github.com/hotelaria/opshub/internal/types"
	"gorm.io/gorm"
)

// ActorKey is the fiber locals key carrying the resolved actor.
const ActorKey = "actor"

// Auth validates the session cookie and resolves the actor's assignment
// record into the request context. Role and scope decisions happen in the
// services against the resolved actor, not here. The Authorizer client
// initializes lazily on the first authenticated request.
func Auth(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
				return &types.CustomError{
					Code:    fiber.StatusServiceUnavailable,
					Message: fmt.Sprintf("Authorizer unavailable: %v", err),
					Type:    "inspections.authorization.init",
				}
			}
		}

		session := c.Cookies("cookie_session")
		if session == "" {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Authorizer cookie \"cookie_session\" not found",
				Type:    "inspections.authorization",
			}
		}

		userID, err := services.ValidateSession(session, nil)
		if err != nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: fmt.Sprintf("Invalid session: %v", err),
				Type:    "inspections.authorization",
			}
		}

		actor, err := services.ResolveActor(db, userID)
		if err != nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: fmt.Sprintf("No assignment record for user %s", userID),
				Type:    "inspections.authorization.assignment",
			}
		}

		c.Locals(ActorKey, actor)
		return c.Next()
	}
}

// ActorFromCtx returns the resolved actor stored by Auth.
func ActorFromCtx(c *fiber.Ctx) (scope.Actor, bool) {
	actor, ok := c.Locals(ActorKey).(scope.Actor)
	return actor, ok
}
