package models

import (
	"time"
)

// MatchType is the tournament format. It is the single source of truth for
// team sizing; no other code may derive a team capacity on its own.
type MatchType string

const (
	MatchTypeSolo  MatchType = "solo"
	MatchTypeDuo   MatchType = "duo"
	MatchTypeSquad MatchType = "squad"
)

// TeamCapacity returns the maximum number of accepted members a team may
// hold for this format. Returns 0 for unknown formats.
func (m MatchType) TeamCapacity() int {
	switch m {
	case MatchTypeSolo:
		return 1
	case MatchTypeDuo:
		return 2
	case MatchTypeSquad:
		return 4
	}
	return 0
}

// IsValid reports whether the format is one of the supported match types.
func (m MatchType) IsValid() bool {
	return m.TeamCapacity() > 0
}

// TournamentStatus is the tournament lifecycle state
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
)

// Tournament represents one paid competition users enroll into
type Tournament struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex"`
	GameTitle   string    `json:"game_title"`
	Description string    `json:"description" gorm:"type:text"`
	Rules       string    `json:"rules" gorm:"type:text"`
	MatchType   MatchType `json:"match_type" gorm:"type:varchar(8);not null"`
	EntryFee    float64   `json:"entry_fee" gorm:"default:0"`
	PrizePool   string    `json:"prize_pool"`

	// MaxParticipants caps enrollments. CurrentParticipants is only ever
	// incremented by the enrollment service; there is no refund or
	// cancellation path that would decrement it.
	MaxParticipants     int `json:"max_participants" gorm:"default:0"`
	CurrentParticipants int `json:"current_participants" gorm:"default:0"`

	Status    TournamentStatus `json:"status" gorm:"type:varchar(16);default:'upcoming'"`
	BannerURL string           `json:"banner_url"`
	StartTime time.Time        `json:"start_time" gorm:"not null"`
	EndTime   time.Time        `json:"end_time"`

	Timestamps
}

// MiniTournament is the trimmed listing shape returned by the mini endpoint
type MiniTournament struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Slug                string           `json:"slug"`
	GameTitle           string           `json:"game_title"`
	MatchType           MatchType        `json:"match_type"`
	EntryFee            float64          `json:"entry_fee"`
	PrizePool           string           `json:"prize_pool"`
	MaxParticipants     int              `json:"max_participants"`
	CurrentParticipants int              `json:"current_participants"`
	EnrolledCount       int64            `json:"enrolled_count"`
	Status              TournamentStatus `json:"status"`
	BannerURL           string           `json:"banner_url"`
	StartTime           time.Time        `json:"start_time"`
	EndTime             time.Time        `json:"end_time"`
	CreatedAt           time.Time        `json:"created_at"`
}
