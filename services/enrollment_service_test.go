package services

import (
	"errors"
	"testing"

	"tournament-arena-system/models"
)

func TestSubmitEnrollmentFullPrice(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 250, 10)

	enrollment := enrollUser(t, enrollments, tournament.ID, "player-1")

	if enrollment.PaymentStatus != models.PaymentPending {
		t.Errorf("expected pending payment, got %s", enrollment.PaymentStatus)
	}
	if enrollment.DiscountAmount != 0 || enrollment.FinalAmount != 250 {
		t.Errorf("expected full price 250 with no discount, got final %v discount %v",
			enrollment.FinalAmount, enrollment.DiscountAmount)
	}

	var fresh models.Tournament
	if err := db.First(&fresh, "id = ?", tournament.ID).Error; err != nil {
		t.Fatalf("failed to reload tournament: %v", err)
	}
	if fresh.CurrentParticipants != 1 {
		t.Errorf("expected participant counter 1, got %d", fresh.CurrentParticipants)
	}

	var notifCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", "player-1", models.NotifEnrollment).
		Count(&notifCount)
	if notifCount != 1 {
		t.Errorf("expected one enrollment notification, got %d", notifCount)
	}
}

func TestSubmitEnrollmentAppliesReferralDiscount(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 500, 10)
	seedReferralCode(t, db, "referrer-1", "SAVETEN1", true)

	enrollment, err := enrollments.submitEnrollment(tournament.ID, "player-1", EnrollmentRequest{
		InGameName:       "Player One",
		InGameID:         "p1",
		PaymentReference: "upi-001",
		ReferralCode:     "saveten1",
	})
	if err != nil {
		t.Fatalf("enrollment failed: %v", err)
	}

	if enrollment.DiscountAmount != 50 || enrollment.FinalAmount != 450 {
		t.Errorf("expected discount 50 and final 450, got %v and %v",
			enrollment.DiscountAmount, enrollment.FinalAmount)
	}
	if enrollment.ReferralCodeUsed != "SAVETEN1" {
		t.Errorf("expected canonical code SAVETEN1 on enrollment, got %q", enrollment.ReferralCodeUsed)
	}

	var usage models.ReferralUsage
	if err := db.First(&usage, "enrollment_id = ?", enrollment.ID).Error; err != nil {
		t.Fatalf("expected usage row for enrollment: %v", err)
	}
	if usage.ReferrerID != "referrer-1" || usage.DiscountAmount != 50 {
		t.Errorf("unexpected usage row: referrer %q discount %v", usage.ReferrerID, usage.DiscountAmount)
	}

	var referrerNotifs int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", "referrer-1", models.NotifReferralUsed).
		Count(&referrerNotifs)
	if referrerNotifs != 1 {
		t.Errorf("expected referrer notification, got %d", referrerNotifs)
	}
}

func TestSubmitEnrollmentIgnoresBadReferralCode(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 300, 10)
	seedReferralCode(t, db, "referrer-1", "RETIRED1", false)

	for _, code := range []string{"DOESNOTX", "RETIRED1"} {
		enrollment, err := enrollments.submitEnrollment(tournament.ID, "player-"+code, EnrollmentRequest{
			InGameName:       "Player",
			InGameID:         "ign",
			PaymentReference: "upi",
			ReferralCode:     code,
		})
		if err != nil {
			t.Fatalf("enrollment with unusable code %q should succeed at full price, got: %v", code, err)
		}
		if enrollment.DiscountAmount != 0 || enrollment.FinalAmount != 300 {
			t.Errorf("code %q: expected full price, got final %v discount %v",
				code, enrollment.FinalAmount, enrollment.DiscountAmount)
		}
		if enrollment.ReferralCodeUsed != "" {
			t.Errorf("code %q: expected no code recorded, got %q", code, enrollment.ReferralCodeUsed)
		}
	}

	var usageCount int64
	db.Model(&models.ReferralUsage{}).Count(&usageCount)
	if usageCount != 0 {
		t.Errorf("expected no usage rows for unusable codes, got %d", usageCount)
	}
}

func TestSubmitEnrollmentValidation(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 100, 10)

	cases := []EnrollmentRequest{
		{InGameName: "", InGameID: "x", PaymentReference: "upi"},
		{InGameName: "x", InGameID: "  ", PaymentReference: "upi"},
		{InGameName: "x", InGameID: "x", PaymentReference: ""},
	}
	for i, req := range cases {
		if _, err := enrollments.submitEnrollment(tournament.ID, "player-1", req); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got: %v", i, err)
		}
	}
}

func TestSubmitEnrollmentDuplicate(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 100, 10)

	enrollUser(t, enrollments, tournament.ID, "player-1")

	_, err := enrollments.submitEnrollment(tournament.ID, "player-1", EnrollmentRequest{
		InGameName:       "Other Name",
		InGameID:         "other",
		PaymentReference: "upi-2",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists on duplicate enrollment, got: %v", err)
	}
}

func TestSubmitEnrollmentCapacity(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 100, 2)

	enrollUser(t, enrollments, tournament.ID, "player-1")
	enrollUser(t, enrollments, tournament.ID, "player-2")

	_, err := enrollments.submitEnrollment(tournament.ID, "player-3", EnrollmentRequest{
		InGameName:       "Player Three",
		InGameID:         "p3",
		PaymentReference: "upi-3",
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded on full tournament, got: %v", err)
	}

	var fresh models.Tournament
	if err := db.First(&fresh, "id = ?", tournament.ID).Error; err != nil {
		t.Fatalf("failed to reload tournament: %v", err)
	}
	if fresh.CurrentParticipants != 2 {
		t.Errorf("expected counter to stay at 2, got %d", fresh.CurrentParticipants)
	}
}

func TestSubmitEnrollmentTournamentNotOpen(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 100, 10)
	if err := db.Model(tournament).Update("status", models.TournamentOngoing).Error; err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	_, err := enrollments.submitEnrollment(tournament.ID, "player-1", EnrollmentRequest{
		InGameName:       "Player",
		InGameID:         "p1",
		PaymentReference: "upi",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for closed tournament, got: %v", err)
	}

	if _, err := enrollments.submitEnrollment("missing-id", "player-1", EnrollmentRequest{
		InGameName:       "Player",
		InGameID:         "p1",
		PaymentReference: "upi",
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown tournament, got: %v", err)
	}
}

func TestReviewPaymentTerminalStates(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 100, 10)
	enrollment := enrollUser(t, enrollments, tournament.ID, "player-1")

	if _, err := enrollments.ReviewPayment(enrollment.ID, models.PaymentPending); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for pending decision, got: %v", err)
	}

	reviewed, err := enrollments.ReviewPayment(enrollment.ID, models.PaymentCompleted)
	if err != nil {
		t.Fatalf("ReviewPayment failed: %v", err)
	}
	if reviewed.PaymentStatus != models.PaymentCompleted {
		t.Errorf("expected completed status, got %s", reviewed.PaymentStatus)
	}
	if reviewed.ReviewedAt == nil {
		t.Error("expected reviewed_at to be set")
	}

	if _, err := enrollments.ReviewPayment(enrollment.ID, models.PaymentRejected); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on second review, got: %v", err)
	}

	var fresh models.Enrollment
	if err := db.First(&fresh, "id = ?", enrollment.ID).Error; err != nil {
		t.Fatalf("failed to reload enrollment: %v", err)
	}
	if fresh.PaymentStatus != models.PaymentCompleted {
		t.Errorf("terminal status must not change, got %s", fresh.PaymentStatus)
	}

	if _, err := enrollments.ReviewPayment("missing-id", models.PaymentCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown enrollment, got: %v", err)
	}
}

func TestAssignRoom(t *testing.T) {
	db, enrollments, _, _ := newTestServices(t)
	tournament := seedTournament(t, db, models.MatchTypeSolo, 100, 10)
	enrollment := enrollUser(t, enrollments, tournament.ID, "player-1")

	if _, err := enrollments.assignRoom(enrollment.ID, "  ", "pw"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank room id, got: %v", err)
	}

	updated, err := enrollments.assignRoom(enrollment.ID, "ROOM-42", "s3cret")
	if err != nil {
		t.Fatalf("assignRoom failed: %v", err)
	}
	if updated.RoomID != "ROOM-42" || updated.RoomPassword != "s3cret" {
		t.Errorf("expected room credentials on enrollment, got %q / %q", updated.RoomID, updated.RoomPassword)
	}

	var notifCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", "player-1", models.NotifRoomAssigned).
		Count(&notifCount)
	if notifCount != 1 {
		t.Errorf("expected room notification, got %d", notifCount)
	}
}
