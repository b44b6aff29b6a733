package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"tournament-arena-system/models"
)

// EnrollmentService guards tournament capacity, records registration
// attempts and links them to referral discounts.
type EnrollmentService struct {
	DB            *gorm.DB
	Referrals     *ReferralService
	Notifications *NotificationService
}

func NewEnrollmentService(db *gorm.DB, referrals *ReferralService, notifications *NotificationService) *EnrollmentService {
	return &EnrollmentService{DB: db, Referrals: referrals, Notifications: notifications}
}

// rupees formats amounts for notification messages
var rupees = message.NewPrinter(language.English)

// EnrollmentRequest carries the user-submitted registration fields
type EnrollmentRequest struct {
	InGameName       string `json:"in_game_name"`
	InGameID         string `json:"in_game_id"`
	PaymentReference string `json:"payment_reference"`
	ReferralCode     string `json:"referral_code,omitempty"`
}

// submitEnrollment registers one user into one tournament. Preconditions
// (tournament open, capacity, no duplicate) are checked before any mutation
// and re-checked inside the transaction that performs the compound write:
// enrollment row, referral usage + earning, participant counter increment.
func (s *EnrollmentService) submitEnrollment(tournamentID, userID string, req EnrollmentRequest) (*models.Enrollment, error) {
	if strings.TrimSpace(req.InGameName) == "" || strings.TrimSpace(req.InGameID) == "" {
		return nil, fmt.Errorf("in_game_name and in_game_id are required: %w", ErrValidation)
	}
	if strings.TrimSpace(req.PaymentReference) == "" {
		return nil, fmt.Errorf("payment_reference is required: %w", ErrValidation)
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tournament %s: %w", tournamentID, ErrNotFound)
		}
		return nil, err
	}

	if tournament.Status != models.TournamentUpcoming {
		return nil, ErrTournamentNotOpen
	}
	if tournament.MaxParticipants > 0 && tournament.CurrentParticipants >= tournament.MaxParticipants {
		return nil, ErrTournamentFull
	}

	var existing models.Enrollment
	err := s.DB.Where("tournament_id = ? AND user_id = ?", tournamentID, userID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Re-validate the referral code at submission time; the UI's earlier
	// check is advisory. A code that fails revalidation is treated as
	// absent, not as a reason to fail the enrollment.
	var refCode *models.ReferralCode
	if req.ReferralCode != "" {
		refCode, err = s.Referrals.validateCode(req.ReferralCode)
		if err != nil {
			log.Printf("[Enroll] Ignoring referral code %q for user %s: %v", req.ReferralCode, userID, err)
			refCode = nil
		}
	}

	discount := 0.0
	codeUsed := ""
	if refCode != nil {
		discount = tournament.EntryFee * refCode.DiscountPercentage / 100
		codeUsed = refCode.Code
	}
	finalAmount := tournament.EntryFee - discount

	enrollment := models.Enrollment{
		ID:               uuid.NewString(),
		TournamentID:     tournamentID,
		UserID:           userID,
		InGameName:       strings.TrimSpace(req.InGameName),
		InGameID:         strings.TrimSpace(req.InGameID),
		PaymentReference: strings.TrimSpace(req.PaymentReference),
		PaymentStatus:    models.PaymentPending,
		ReferralCodeUsed: codeUsed,
		DiscountAmount:   discount,
		FinalAmount:      finalAmount,
		JoinedAt:         time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Optimistic check-then-write: the entry checks above ran on a
		// possibly stale read, so capacity and status are re-read here
		// inside the transaction boundary.
		var fresh models.Tournament
		if err := tx.First(&fresh, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if fresh.Status != models.TournamentUpcoming {
			return ErrTournamentNotOpen
		}
		if fresh.MaxParticipants > 0 && fresh.CurrentParticipants >= fresh.MaxParticipants {
			return ErrTournamentFull
		}

		if err := tx.Create(&enrollment).Error; err != nil {
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		if refCode != nil {
			if err := s.Referrals.recordUsage(tx, refCode, userID, tournamentID, enrollment.ID, tournament.EntryFee, discount); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Tournament{}).
			Where("id = ?", tournamentID).
			UpdateColumn("current_participants", gorm.Expr("current_participants + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment participant counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifications.Notify(userID,
		"Enrollment received",
		rupees.Sprintf("Your registration for %s is in. Payment of ₹%.2f is pending verification.", tournament.Name, finalAmount),
		models.NotifEnrollment, tournament.ID)
	if refCode != nil {
		s.Notifications.Notify(refCode.UserID,
			"Your referral code was used",
			rupees.Sprintf("Code %s was applied to an enrollment for %s. Commission of ₹%.2f is pending payment verification.",
				refCode.Code, tournament.Name, tournament.EntryFee*refCode.CommissionPercentage/100),
			models.NotifReferralUsed, tournament.ID)
	}

	return &enrollment, nil
}

// ReviewPayment applies the external reviewer's decision. Pending is the
// only state it can move from; completed and rejected are terminal.
func (s *EnrollmentService) ReviewPayment(enrollmentID string, decision models.PaymentStatus) (*models.Enrollment, error) {
	if decision != models.PaymentCompleted && decision != models.PaymentRejected {
		return nil, fmt.Errorf("decision must be completed or rejected: %w", ErrValidation)
	}

	var enrollment models.Enrollment
	if err := s.DB.First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %s: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}
	if enrollment.PaymentStatus.IsTerminal() {
		return nil, fmt.Errorf("payment already reviewed as %s: %w", enrollment.PaymentStatus, ErrValidation)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"payment_status": decision,
		"reviewed_at":    &now,
	}
	if err := s.DB.Model(&enrollment).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	enrollment.PaymentStatus = decision
	enrollment.ReviewedAt = &now

	title := "Payment verified"
	body := "Your tournament entry payment was verified. You're in!"
	if decision == models.PaymentRejected {
		title = "Payment rejected"
		body = "Your tournament entry payment could not be verified. Contact support with your payment reference."
	}
	s.Notifications.Notify(enrollment.UserID, title, body, models.NotifPaymentReview, enrollment.TournamentID)

	return &enrollment, nil
}

// assignRoom stores match-room credentials on a verified enrollment
func (s *EnrollmentService) assignRoom(enrollmentID, roomID, roomPassword string) (*models.Enrollment, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, fmt.Errorf("room_id is required: %w", ErrValidation)
	}

	var enrollment models.Enrollment
	if err := s.DB.First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %s: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"room_id":       roomID,
		"room_password": roomPassword,
	}
	if err := s.DB.Model(&enrollment).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to assign room: %w", err)
	}
	enrollment.RoomID = roomID
	enrollment.RoomPassword = roomPassword

	s.Notifications.Notify(enrollment.UserID,
		"Match room assigned",
		"Room credentials for your tournament are available in your enrollment details.",
		models.NotifRoomAssigned, enrollment.TournamentID)

	return &enrollment, nil
}

// --- Fiber handlers ---

// EnrollInTournament handles POST /tournaments/:id/enroll
func (s *EnrollmentService) EnrollInTournament(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req EnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	enrollment, err := s.submitEnrollment(c.Params("id"), userID, req)
	if err != nil {
		if httpStatus(err) == fiber.StatusInternalServerError {
			log.Printf("[Enroll] ❌ submit failed for user %s: %v", userID, err)
		}
		return respondError(c, err)
	}
	return c.Status(201).JSON(enrollment)
}

// GetMyEnrollment returns the caller's enrollment in one tournament
func (s *EnrollmentService) GetMyEnrollment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var enrollment models.Enrollment
	err = s.DB.Where("tournament_id = ? AND user_id = ?", c.Params("id"), userID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "not enrolled in this tournament"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(enrollment)
}

// GetMyEnrollments lists all of the caller's enrollments, newest first
func (s *EnrollmentService) GetMyEnrollments(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var enrollments []models.Enrollment
	if err := s.DB.Where("user_id = ?", userID).Order("joined_at DESC").Find(&enrollments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch enrollments"})
	}
	return c.JSON(enrollments)
}

// GetTournamentEnrollments lists enrollments of one tournament (admin)
func (s *EnrollmentService) GetTournamentEnrollments(c *fiber.Ctx) error {
	query := s.DB.Where("tournament_id = ?", c.Params("id"))
	if status := c.Query("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var enrollments []models.Enrollment
	if err := query.Order("joined_at ASC").Find(&enrollments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch enrollments"})
	}
	return c.JSON(enrollments)
}

// ReviewEnrollmentPayment handles PATCH /admin/enrollments/:id/payment
func (s *EnrollmentService) ReviewEnrollmentPayment(c *fiber.Ctx) error {
	var req struct {
		Status models.PaymentStatus `json:"status" validate:"required,oneof=completed rejected"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	enrollment, err := s.ReviewPayment(c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "payment reviewed", "enrollment": enrollment})
}

// AssignRoomCredentials handles PATCH /admin/enrollments/:id/room
func (s *EnrollmentService) AssignRoomCredentials(c *fiber.Ctx) error {
	var req struct {
		RoomID       string `json:"room_id" validate:"required"`
		RoomPassword string `json:"room_password,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	enrollment, err := s.assignRoom(c.Params("id"), req.RoomID, req.RoomPassword)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "room assigned", "enrollment": enrollment})
}
