package middleware

import (
	"github.com/gofiber/fiber/v3"
)

const (
	// Survey permissions
	ReadSurveyPermission    = "read:survey"
	ReadAllSurveyPermission = "read:survey:all"
	WriteSurveyPermission   = "write:survey"
	UpdateSurveyPermission  = "update:survey"
	DeleteSurveyPermission  = "delete:survey"
	PublishSurveyPermission = "publish:survey"

	// Response permissions
	ReadResponsePermission = "read:response"

	// Dashboard permissions
	ReadSurveyDashboardPermission = "read:survey:dashboard"

	// Admin permissions (for backward compatibility)
	AdminPermission = "admin"
)

// UserIDHeader is set by the API gateway after authentication. Protected
// routes trust it and never see raw credentials.
const UserIDHeader = "X-User-ID"

// RequireUser rejects protected requests that arrive without the gateway
// identity header.
func RequireUser() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Get(UserIDHeader) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User identity is required",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id for the request.
func UserID(c fiber.Ctx) string {
	return c.Get(UserIDHeader)
}
