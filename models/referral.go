package models

import "time"

// Fixed referral economics. Codes are issued with these values; changing
// them affects new codes only.
const (
	ReferralDiscountPercent   = 10.0
	ReferralCommissionPercent = 10.0
)

// ReferralCode is a per-user shareable code. One active code per user,
// created lazily on first access. Codes never expire; IsActive is the only
// kill switch.
type ReferralCode struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null"`
	Code   string `json:"code" gorm:"uniqueIndex;not null;type:varchar(16)"`

	DiscountPercentage   float64 `json:"discount_percentage" gorm:"default:10"`
	CommissionPercentage float64 `json:"commission_percentage" gorm:"default:10"`
	IsActive             bool    `json:"is_active" gorm:"default:true"`

	// MaxUses of 0 means unlimited. CurrentUses is incremented with a
	// database-native increment, never read-modify-write.
	MaxUses     int `json:"max_uses" gorm:"default:0"`
	CurrentUses int `json:"current_uses" gorm:"default:0"`

	Timestamps
}

// ReferralUsage records one application of a code to one enrollment
type ReferralUsage struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	CodeID         string  `json:"code_id" gorm:"not null;index"`
	Code           string  `json:"code" gorm:"not null;index;type:varchar(16)"`
	ReferrerID     string  `json:"referrer_id" gorm:"not null;index"`
	ReferredUserID string  `json:"referred_user_id" gorm:"not null"`
	TournamentID   string  `json:"tournament_id" gorm:"not null"`
	EnrollmentID   string  `json:"enrollment_id" gorm:"not null;uniqueIndex"`
	DiscountAmount float64 `json:"discount_amount"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// EarningStatus tracks commission settlement. Payout happens elsewhere, so
// rows created here stay pending.
type EarningStatus string

const (
	EarningPending EarningStatus = "pending"
	EarningSettled EarningStatus = "settled"
)

// ReferralEarning holds the commission owed to the referrer for one usage
type ReferralEarning struct {
	ID         string        `json:"id" gorm:"primaryKey"`
	UsageID    string        `json:"usage_id" gorm:"not null;uniqueIndex"`
	ReferrerID string        `json:"referrer_id" gorm:"not null;index"`
	Amount     float64       `json:"amount"`
	Status     EarningStatus `json:"status" gorm:"type:varchar(10);default:'pending'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// ReferralStats is the read-side aggregation over a code's usages, split by
// the referred enrollment's payment status.
type ReferralStats struct {
	Code            string  `json:"code"`
	TotalUses       int64   `json:"total_uses"`
	SuccessfulUses  int64   `json:"successful_uses"`
	PendingUses     int64   `json:"pending_uses"`
	TotalEarnings   float64 `json:"total_earnings"`
	PendingEarnings float64 `json:"pending_earnings"`
}
