package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error classes. Concrete errors wrap one of these so handlers can map them
// to HTTP statuses with errors.Is; precondition failures are returned before
// any mutation is attempted.
var (
	ErrValidation       = errors.New("validation failed")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrNotFound         = errors.New("not found")
)

var (
	ErrTournamentNotOpen = fmt.Errorf("tournament is not open for registration: %w", ErrValidation)
	ErrTournamentFull    = fmt.Errorf("tournament is full: %w", ErrCapacityExceeded)
	ErrAlreadyEnrolled   = fmt.Errorf("user is already enrolled in this tournament: %w", ErrAlreadyExists)
	ErrNotEnrolled       = fmt.Errorf("user must be enrolled in this tournament: %w", ErrValidation)

	ErrTeamFull          = fmt.Errorf("team is full: %w", ErrCapacityExceeded)
	ErrAlreadyInTeam     = fmt.Errorf("user already belongs to a team in this tournament: %w", ErrAlreadyExists)
	ErrNotTeamOwner      = fmt.Errorf("only the team owner may perform this action: %w", ErrNotAuthorized)
	ErrSoloTeamsDisabled = fmt.Errorf("solo tournaments do not have teams: %w", ErrValidation)
)

// httpStatus maps an error class to the HTTP status the gateway contract
// expects. Unknown errors fall through to 500.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrCapacityExceeded):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotAuthorized):
		return fiber.StatusForbidden
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError writes the standard error body for a failed operation
func respondError(c *fiber.Ctx, err error) error {
	status := httpStatus(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
