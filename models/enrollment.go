package models

import "time"

// PaymentStatus tracks the external payment review outcome for an enrollment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRejected  PaymentStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change.
func (p PaymentStatus) IsTerminal() bool {
	return p == PaymentCompleted || p == PaymentRejected
}

// Enrollment is one user's registration into one tournament.
// At most one row may exist per (tournament, user) pair.
type Enrollment struct {
	ID           string `json:"id" gorm:"primaryKey"`
	TournamentID string `json:"tournament_id" gorm:"not null;index;uniqueIndex:idx_enrollment_tournament_user"`
	UserID       string `json:"user_id" gorm:"not null;index;uniqueIndex:idx_enrollment_tournament_user"`

	// In-game identity, locked once submitted for fair play
	InGameName string `json:"in_game_name" gorm:"not null"`
	InGameID   string `json:"in_game_id" gorm:"not null"`

	// Payment metadata. The reference string is recorded verbatim at
	// submission; status moves to completed/rejected only through review.
	PaymentReference string        `json:"payment_reference" gorm:"not null"`
	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(16);default:'pending';index"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`

	// Referral pricing, computed at submission time
	ReferralCodeUsed string  `json:"referral_code_used,omitempty" gorm:"type:varchar(16)"`
	DiscountAmount   float64 `json:"discount_amount" gorm:"default:0"`
	FinalAmount      float64 `json:"final_amount" gorm:"default:0"`

	// Set once the user lands on an accepted team in this tournament
	TeamID *string `json:"team_id,omitempty" gorm:"index"`

	// Match-room credentials, populated by the review surface before start
	RoomID       string `json:"room_id,omitempty"`
	RoomPassword string `json:"room_password,omitempty"`

	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`

	Timestamps
}
