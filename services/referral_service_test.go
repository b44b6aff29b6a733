package services

import (
	"errors"
	"strings"
	"testing"

	"tournament-arena-system/models"
)

func TestEnsureCodeForUserIssuesAndReuses(t *testing.T) {
	_, _, _, referrals := newTestServices(t)

	code, err := referrals.EnsureCodeForUser("user-1")
	if err != nil {
		t.Fatalf("EnsureCodeForUser failed: %v", err)
	}
	if len(code.Code) != referralCodeLength {
		t.Errorf("expected %d-character code, got %q", referralCodeLength, code.Code)
	}
	for _, r := range code.Code {
		if !strings.ContainsRune(referralCodeCharset, r) {
			t.Errorf("code %q contains character outside charset: %q", code.Code, r)
		}
	}
	if !code.IsActive {
		t.Error("expected new code to be active")
	}
	if code.DiscountPercentage != models.ReferralDiscountPercent {
		t.Errorf("expected discount %v, got %v", models.ReferralDiscountPercent, code.DiscountPercentage)
	}
	if code.MaxUses != 0 {
		t.Errorf("expected unlimited uses (0), got %d", code.MaxUses)
	}

	again, err := referrals.EnsureCodeForUser("user-1")
	if err != nil {
		t.Fatalf("second EnsureCodeForUser failed: %v", err)
	}
	if again.Code != code.Code {
		t.Errorf("expected the same code on repeat access, got %q then %q", code.Code, again.Code)
	}

	var count int64
	referrals.DB.Model(&models.ReferralCode{}).Where("user_id = ?", "user-1").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one code row, got %d", count)
	}
}

func TestValidateCodeCaseInsensitive(t *testing.T) {
	db, _, _, referrals := newTestServices(t)
	seedReferralCode(t, db, "referrer-1", "ABC12345", true)

	record, err := referrals.validateCode("abc12345")
	if err != nil {
		t.Fatalf("expected lower-case input to validate, got: %v", err)
	}
	if record.Code != "ABC12345" {
		t.Errorf("expected canonical code ABC12345, got %q", record.Code)
	}

	record, err = referrals.validateCode("  ABC12345  ")
	if err != nil {
		t.Fatalf("expected padded input to validate, got: %v", err)
	}
	if record.UserID != "referrer-1" {
		t.Errorf("expected owner referrer-1, got %q", record.UserID)
	}
}

func TestValidateCodeRejectsInactiveAndUnknown(t *testing.T) {
	db, _, _, referrals := newTestServices(t)
	seedReferralCode(t, db, "referrer-1", "DEADCODE", false)

	if _, err := referrals.validateCode("DEADCODE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for inactive code, got: %v", err)
	}
	if _, err := referrals.validateCode("NOPE1234"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got: %v", err)
	}
	if _, err := referrals.validateCode("   "); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank code, got: %v", err)
	}
}

func TestValidateCodeExhausted(t *testing.T) {
	db, _, _, referrals := newTestServices(t)
	code := seedReferralCode(t, db, "referrer-1", "ONESHOT1", true)

	if err := db.Model(code).Updates(map[string]interface{}{"max_uses": 1, "current_uses": 1}).Error; err != nil {
		t.Fatalf("failed to exhaust code: %v", err)
	}
	if _, err := referrals.validateCode("ONESHOT1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for exhausted code, got: %v", err)
	}
}

func TestReferralStatsFollowPaymentReview(t *testing.T) {
	db, enrollments, _, referrals := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 1000, 0)
	seedReferralCode(t, db, "referrer-1", "ABC12345", true)

	enrollment, err := enrollments.submitEnrollment(tournament.ID, "player-1", EnrollmentRequest{
		InGameName:       "Player One",
		InGameID:         "p1",
		PaymentReference: "upi-001",
		ReferralCode:     "ABC12345",
	})
	if err != nil {
		t.Fatalf("enrollment with referral failed: %v", err)
	}

	stats, err := referrals.aggregateStats("ABC12345")
	if err != nil {
		t.Fatalf("aggregateStats failed: %v", err)
	}
	if stats.TotalUses != 1 || stats.PendingUses != 1 || stats.SuccessfulUses != 0 {
		t.Errorf("before review: expected 1 total / 1 pending / 0 successful, got %d / %d / %d",
			stats.TotalUses, stats.PendingUses, stats.SuccessfulUses)
	}
	if stats.PendingEarnings != 100 || stats.TotalEarnings != 0 {
		t.Errorf("before review: expected pending earnings 100 and total 0, got %v and %v",
			stats.PendingEarnings, stats.TotalEarnings)
	}

	if _, err := enrollments.ReviewPayment(enrollment.ID, models.PaymentCompleted); err != nil {
		t.Fatalf("ReviewPayment failed: %v", err)
	}

	stats, err = referrals.aggregateStats("ABC12345")
	if err != nil {
		t.Fatalf("aggregateStats after review failed: %v", err)
	}
	if stats.SuccessfulUses != 1 || stats.PendingUses != 0 {
		t.Errorf("after review: expected 1 successful / 0 pending, got %d / %d",
			stats.SuccessfulUses, stats.PendingUses)
	}
	if stats.TotalEarnings != 100 || stats.PendingEarnings != 0 {
		t.Errorf("after review: expected total earnings 100 and pending 0, got %v and %v",
			stats.TotalEarnings, stats.PendingEarnings)
	}
}

func TestRecordUsageIncrementsCounter(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 500, 0)
	code := seedReferralCode(t, db, "referrer-1", "COUNTME1", true)

	for i, user := range []string{"player-1", "player-2"} {
		_, err := enrollments.submitEnrollment(tournament.ID, user, EnrollmentRequest{
			InGameName:       "Player",
			InGameID:         user,
			PaymentReference: "upi",
			ReferralCode:     "COUNTME1",
		})
		if err != nil {
			t.Fatalf("enrollment %d failed: %v", i, err)
		}
	}

	var fresh models.ReferralCode
	if err := db.First(&fresh, "id = ?", code.ID).Error; err != nil {
		t.Fatalf("failed to reload code: %v", err)
	}
	if fresh.CurrentUses != 2 {
		t.Errorf("expected current_uses 2, got %d", fresh.CurrentUses)
	}

	var earnings []models.ReferralEarning
	if err := db.Where("referrer_id = ?", "referrer-1").Find(&earnings).Error; err != nil {
		t.Fatalf("failed to load earnings: %v", err)
	}
	if len(earnings) != 2 {
		t.Fatalf("expected 2 earning rows, got %d", len(earnings))
	}
	for _, e := range earnings {
		if e.Amount != 50 {
			t.Errorf("expected commission 50 on fee 500, got %v", e.Amount)
		}
		if e.Status != models.EarningPending {
			t.Errorf("expected pending earning, got %s", e.Status)
		}
	}
}
