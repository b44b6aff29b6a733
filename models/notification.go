package models

// NotificationType tags what kind of event a notification reports
type NotificationType string

const (
	NotifEnrollment     NotificationType = "enrollment"
	NotifPaymentReview  NotificationType = "payment_review"
	NotifTeamJoinNotice NotificationType = "team_join_request"
	NotifTeamAccepted   NotificationType = "team_accepted"
	NotifTeamRejected   NotificationType = "team_rejected"
	NotifTeamRemoved    NotificationType = "team_removed"
	NotifTeamOwnership  NotificationType = "team_ownership"
	NotifReferralUsed   NotificationType = "referral_used"
	NotifRoomAssigned   NotificationType = "room_assigned"
)

// Notification is a fire-and-forget message to one user. Writing one must
// never fail the operation that triggered it.
type Notification struct {
	ID      string           `json:"id" gorm:"primaryKey"`
	UserID  string           `json:"user_id" gorm:"not null;index"`
	Title   string           `json:"title" gorm:"not null"`
	Message string           `json:"message" gorm:"type:text"`
	Type    NotificationType `json:"type" gorm:"type:varchar(24);index"`

	// RelatedID points at the tournament/team/enrollment the event is about
	RelatedID string `json:"related_id,omitempty"`
	IsRead    bool   `json:"is_read" gorm:"default:false;index"`

	Timestamps
}
