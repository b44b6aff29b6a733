package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tournament-arena-system/models"
)

// ReferralService owns code issuance, validation and the commission trail.
type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

const referralCodeLength = 8
const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateReferralCode returns a random 8-character uppercase alphanumeric code
func generateReferralCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = referralCodeCharset[int(b)%len(referralCodeCharset)]
	}
	return string(buf), nil
}

// EnsureCodeForUser returns the user's active referral code, creating one
// lazily on first access. A single code collision is regenerated; a second
// collision is surfaced as an error because it means the random source or
// the uniqueness check is broken.
func (s *ReferralService) EnsureCodeForUser(userID string) (*models.ReferralCode, error) {
	var code models.ReferralCode
	err := s.DB.Where("user_id = ? AND is_active = ?", userID, true).First(&code).Error
	if err == nil {
		return &code, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		generated, err := generateReferralCode()
		if err != nil {
			return nil, err
		}

		var taken int64
		if err := s.DB.Model(&models.ReferralCode{}).Where("code = ?", generated).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			log.Printf("[Referral] ⚠️ code collision on %s, regenerating", generated)
			continue
		}

		code = models.ReferralCode{
			ID:                   uuid.NewString(),
			UserID:               userID,
			Code:                 generated,
			DiscountPercentage:   models.ReferralDiscountPercent,
			CommissionPercentage: models.ReferralCommissionPercent,
			IsActive:             true,
			MaxUses:              0, // unlimited
		}
		if err := s.DB.Create(&code).Error; err != nil {
			return nil, fmt.Errorf("failed to create referral code: %w", err)
		}
		log.Printf("[Referral] Issued code %s for user %s", code.Code, userID)
		return &code, nil
	}

	return nil, fmt.Errorf("referral code generation collided twice, random source or uniqueness check is broken")
}

// validateCode resolves a code to its active record. Codes are canonicalized
// upper-case, so matching is effectively case-insensitive. Returns a
// NotFound-class error for missing, inactive or exhausted codes.
func (s *ReferralService) validateCode(code string) (*models.ReferralCode, error) {
	canonical := strings.ToUpper(strings.TrimSpace(code))
	if canonical == "" {
		return nil, fmt.Errorf("referral code is empty: %w", ErrValidation)
	}

	var record models.ReferralCode
	err := s.DB.Where("code = ? AND is_active = ?", canonical, true).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("referral code %s: %w", canonical, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if record.MaxUses > 0 && record.CurrentUses >= record.MaxUses {
		return nil, fmt.Errorf("referral code %s is exhausted: %w", canonical, ErrNotFound)
	}
	return &record, nil
}

// recordUsage appends the usage row, its derived earning, and bumps the
// code's usage counter with a database-native increment. Runs on the
// caller's transaction handle so it commits or rolls back with the
// enrollment that owns it.
func (s *ReferralService) recordUsage(tx *gorm.DB, code *models.ReferralCode, userID, tournamentID, enrollmentID string, fee, discountApplied float64) error {
	usage := models.ReferralUsage{
		ID:             uuid.NewString(),
		CodeID:         code.ID,
		Code:           code.Code,
		ReferrerID:     code.UserID,
		ReferredUserID: userID,
		TournamentID:   tournamentID,
		EnrollmentID:   enrollmentID,
		DiscountAmount: discountApplied,
	}
	if err := tx.Create(&usage).Error; err != nil {
		return fmt.Errorf("failed to create referral usage: %w", err)
	}

	earning := models.ReferralEarning{
		ID:         uuid.NewString(),
		UsageID:    usage.ID,
		ReferrerID: code.UserID,
		Amount:     fee * code.CommissionPercentage / 100,
		Status:     models.EarningPending,
	}
	if err := tx.Create(&earning).Error; err != nil {
		return fmt.Errorf("failed to create referral earning: %w", err)
	}

	if err := tx.Model(&models.ReferralCode{}).
		Where("id = ?", code.ID).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1")).Error; err != nil {
		return fmt.Errorf("failed to increment code usage counter: %w", err)
	}
	return nil
}

// aggregateStats joins usage rows to their enrollment's payment status:
// successful = completed, pending = pending. Pure read, no side effects.
func (s *ReferralService) aggregateStats(code string) (*models.ReferralStats, error) {
	canonical := strings.ToUpper(strings.TrimSpace(code))

	var record models.ReferralCode
	err := s.DB.Where("code = ?", canonical).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("referral code %s: %w", canonical, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	stats := models.ReferralStats{Code: record.Code}

	if err := s.DB.Model(&models.ReferralUsage{}).
		Where("code_id = ?", record.ID).
		Count(&stats.TotalUses).Error; err != nil {
		return nil, err
	}

	countByPayment := func(status models.PaymentStatus, out *int64) error {
		return s.DB.Model(&models.ReferralUsage{}).
			Joins("JOIN enrollments ON enrollments.id = referral_usages.enrollment_id").
			Where("referral_usages.code_id = ? AND enrollments.payment_status = ?", record.ID, status).
			Count(out).Error
	}
	if err := countByPayment(models.PaymentCompleted, &stats.SuccessfulUses); err != nil {
		return nil, err
	}
	if err := countByPayment(models.PaymentPending, &stats.PendingUses); err != nil {
		return nil, err
	}

	sumByPayment := func(status models.PaymentStatus, out *float64) error {
		return s.DB.Model(&models.ReferralEarning{}).
			Joins("JOIN referral_usages ON referral_usages.id = referral_earnings.usage_id").
			Joins("JOIN enrollments ON enrollments.id = referral_usages.enrollment_id").
			Where("referral_usages.code_id = ? AND enrollments.payment_status = ?", record.ID, status).
			Select("COALESCE(SUM(referral_earnings.amount), 0)").
			Scan(out).Error
	}
	if err := sumByPayment(models.PaymentCompleted, &stats.TotalEarnings); err != nil {
		return nil, err
	}
	if err := sumByPayment(models.PaymentPending, &stats.PendingEarnings); err != nil {
		return nil, err
	}

	return &stats, nil
}

// --- Fiber handlers ---

// GetMyReferralCode returns (creating if needed) the caller's code
func (s *ReferralService) GetMyReferralCode(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	code, err := s.EnsureCodeForUser(userID)
	if err != nil {
		log.Printf("[Referral] ❌ EnsureCodeForUser failed for %s: %v", userID, err)
		return respondError(c, err)
	}
	return c.JSON(code)
}

// ValidateReferralCode is the pre-submission check the UI calls. The
// enrollment service re-validates on its own; this response is advisory.
func (s *ReferralService) ValidateReferralCode(c *fiber.Ctx) error {
	record, err := s.validateCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return c.JSON(fiber.Map{"valid": false})
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"valid": true,
		"record": fiber.Map{
			"code":                record.Code,
			"discount_percentage": record.DiscountPercentage,
		},
	})
}

// GetMyReferralStats aggregates usage and earnings for the caller's code
func (s *ReferralService) GetMyReferralStats(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	code, err := s.EnsureCodeForUser(userID)
	if err != nil {
		return respondError(c, err)
	}
	stats, err := s.aggregateStats(code.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
