package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/logger"
)

const sessionKey = "session"

// RequireAuth is middleware that validates the bearer token and stores the
// session for downstream handlers.
func RequireAuth(auth service.AuthService, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.New(apperror.CodeUnauthorized, "missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return apperror.New(apperror.CodeUnauthorized, "invalid authorization format, use: Bearer <token>")
		}

		session, err := auth.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			return err
		}

		c.Locals(sessionKey, session)
		c.SetUserContext(log.WithStaffID(c.UserContext(), session.Staff.ID.String()))
		return c.Next()
	}
}

// SessionFrom returns the session stored by RequireAuth, or nil.
func SessionFrom(c *fiber.Ctx) *service.Session {
	s, _ := c.Locals(sessionKey).(*service.Session)
	return s
}

// Actor is the staff member behind the request, or the system actor on
// unauthenticated routes.
func Actor(c *fiber.Ctx) service.Actor {
	if s := SessionFrom(c); s != nil {
		return s.Actor()
	}
	return service.Actor{ID: "system", Name: "system"}
}

// RequirePrivilege checks if the authenticated staff member has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return RequireAnyPrivilege(requiredPrivilege)
}

// RequireAnyPrivilege checks if the staff member has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFrom(c)
		if session == nil {
			return apperror.New(apperror.CodeUnauthorized, "authentication required")
		}

		for _, userPriv := range session.Claims.Privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return apperror.Forbidden("requires one of: " + strings.Join(requiredPrivileges, ", "))
	}
}
