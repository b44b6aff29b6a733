package models

import "time"

// TeamPrivacy controls whether joins auto-accept or queue for owner approval
type TeamPrivacy string

const (
	TeamPrivacyOpen   TeamPrivacy = "open"
	TeamPrivacyClosed TeamPrivacy = "closed"
)

// TeamMemberRole distinguishes the single owner from plain members
type TeamMemberRole string

const (
	TeamRoleOwner  TeamMemberRole = "owner"
	TeamRoleMember TeamMemberRole = "member"
)

// TeamMemberStatus is the membership state. Pending rows exist only for
// closed teams; rejection and removal delete the row outright.
type TeamMemberStatus string

const (
	TeamMemberPending  TeamMemberStatus = "pending"
	TeamMemberAccepted TeamMemberStatus = "accepted"
)

// Team is scoped to exactly one tournament. OwnerID must always equal the
// user ID of one accepted member while the team is non-empty; a team whose
// last member left is kept as an ownerless record.
type Team struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	TournamentID string      `json:"tournament_id" gorm:"not null;index"`
	Name         string      `json:"name" gorm:"not null"`
	Tag          string      `json:"tag" gorm:"type:varchar(4)"`
	Description  string      `json:"description" gorm:"type:text"`
	LogoURL      string      `json:"logo_url"`
	Privacy      TeamPrivacy `json:"privacy" gorm:"type:varchar(8);default:'open'"`
	OwnerID      string      `json:"owner_id" gorm:"index"`

	Members []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`

	Timestamps
}

// TeamMember is a (team, user) pair. TournamentID is denormalized from the
// team so the one-team-per-tournament rule can be enforced with a single
// unique index across all teams of that tournament.
type TeamMember struct {
	ID           string           `json:"id" gorm:"primaryKey"`
	TeamID       string           `json:"team_id" gorm:"not null;index"`
	TournamentID string           `json:"tournament_id" gorm:"not null;uniqueIndex:idx_member_tournament_user"`
	UserID       string           `json:"user_id" gorm:"not null;uniqueIndex:idx_member_tournament_user"`
	Role         TeamMemberRole   `json:"role" gorm:"type:varchar(8);default:'member'"`
	Status       TeamMemberStatus `json:"status" gorm:"type:varchar(10);default:'pending';index"`
	JoinedAt     time.Time        `json:"joined_at" gorm:"autoCreateTime"`
}

// TeamRosterMember is one member row joined to its player snapshot
type TeamRosterMember struct {
	TeamMember        `gorm:"embedded"`
	Username          string  `json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

// TeamRoster is the composed team + ordered member list returned by the
// roster endpoint. Members are ordered by join time, owner first.
type TeamRoster struct {
	Team          Team               `json:"team"`
	Members       []TeamRosterMember `json:"members"`
	AcceptedCount int                `json:"accepted_count"`
	Capacity      int                `json:"capacity"`
}
