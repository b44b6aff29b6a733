package services

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// currentUserID reads the authenticated user set by the user-context
// middleware. Empty means the request bypassed the gateway contract.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return "", fmt.Errorf("missing user context: %w", ErrNotAuthorized)
	}
	return userID, nil
}
