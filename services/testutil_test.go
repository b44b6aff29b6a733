package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tournament-arena-system/models"
)

// setupTestDB opens a named in-memory SQLite database. The name is shared
// across the connection pool so every handle sees the same schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tournament{},
		&models.Enrollment{},
		&models.Team{},
		&models.TeamMember{},
		&models.ReferralCode{},
		&models.ReferralUsage{},
		&models.ReferralEarning{},
		&models.Notification{},
		&models.PlayerProfile{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *EnrollmentService, *TeamService, *ReferralService) {
	t.Helper()
	db := setupTestDB(t)
	notifications := NewNotificationService(db)
	referrals := NewReferralService(db)
	enrollments := NewEnrollmentService(db, referrals, notifications)
	teams := NewTeamService(db, notifications)
	return db, enrollments, teams, referrals
}

func seedTournament(t *testing.T, db *gorm.DB, matchType models.MatchType, fee float64, maxParticipants int) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Name:            "Test Cup",
		Slug:            "test-cup-" + uuid.NewString()[:8],
		MatchType:       matchType,
		EntryFee:        fee,
		MaxParticipants: maxParticipants,
		Status:          models.TournamentUpcoming,
		StartTime:       time.Now().Add(24 * time.Hour),
	}
	if err := db.Create(tournament).Error; err != nil {
		t.Fatalf("failed to seed tournament: %v", err)
	}
	return tournament
}

func enrollUser(t *testing.T, enrollments *EnrollmentService, tournamentID, userID string) *models.Enrollment {
	t.Helper()
	enrollment, err := enrollments.submitEnrollment(tournamentID, userID, EnrollmentRequest{
		InGameName:       "player-" + userID,
		InGameID:         "ign-" + userID,
		PaymentReference: "upi-" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatalf("failed to enroll user %s: %v", userID, err)
	}
	return enrollment
}

func seedReferralCode(t *testing.T, db *gorm.DB, userID, code string, active bool) *models.ReferralCode {
	t.Helper()
	record := &models.ReferralCode{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Code:                 code,
		DiscountPercentage:   models.ReferralDiscountPercent,
		CommissionPercentage: models.ReferralCommissionPercent,
		IsActive:             active,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to seed referral code: %v", err)
	}
	return record
}
