package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/unidecode"
	"gorm.io/gorm"

	"tournament-arena-system/models"
)

// TeamService enforces capacity, uniqueness and ownership rules for teams
// within one tournament.
type TeamService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

func NewTeamService(db *gorm.DB, notifications *NotificationService) *TeamService {
	return &TeamService{DB: db, Notifications: notifications}
}

// CreateTeamRequest carries the team creation fields
type CreateTeamRequest struct {
	Name        string             `json:"name"`
	Tag         string             `json:"tag"`
	Description string             `json:"description,omitempty"`
	LogoURL     string             `json:"logo_url,omitempty"`
	Privacy     models.TeamPrivacy `json:"privacy"`
}

// normalizeTag transliterates to ASCII, strips non-alphanumerics, uppercases
// and trims to 4 characters.
func normalizeTag(tag string) string {
	ascii := unidecode.Unidecode(strings.TrimSpace(tag))
	var b strings.Builder
	for _, r := range strings.ToUpper(ascii) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 4 {
			break
		}
	}
	return b.String()
}

// fetchTeam loads a team and its tournament together
func (s *TeamService) fetchTeam(teamID string) (*models.Team, *models.Tournament, error) {
	var team models.Team
	if err := s.DB.First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
		}
		return nil, nil, err
	}
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", team.TournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("tournament %s: %w", team.TournamentID, ErrNotFound)
		}
		return nil, nil, err
	}
	return &team, &tournament, nil
}

// acceptedCount counts accepted members on the given handle so it can run
// inside a transaction when the count gates a write.
func acceptedCount(tx *gorm.DB, teamID string) (int64, error) {
	var count int64
	err := tx.Model(&models.TeamMember{}).
		Where("team_id = ? AND status = ?", teamID, models.TeamMemberAccepted).
		Count(&count).Error
	return count, err
}

// hasMembership reports whether the user already holds any member row in
// the tournament, across all of its teams.
func (s *TeamService) hasMembership(tournamentID, userID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.TeamMember{}).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Count(&count).Error
	return count > 0, err
}

// setEnrollmentTeam points the user's enrollment at the team they landed
// on, or clears it when teamID is nil.
func setEnrollmentTeam(tx *gorm.DB, tournamentID, userID string, teamID *string) error {
	return tx.Model(&models.Enrollment{}).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Update("team_id", teamID).Error
}

// createTeam creates a team and seats the creator as its accepted owner.
// Solo tournaments have no team concept; the creator must be enrolled and
// not already on a team in this tournament.
func (s *TeamService) createTeam(tournamentID, userID string, req CreateTeamRequest) (*models.Team, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("team name is required: %w", ErrValidation)
	}
	privacy := req.Privacy
	if privacy == "" {
		privacy = models.TeamPrivacyOpen
	}
	if privacy != models.TeamPrivacyOpen && privacy != models.TeamPrivacyClosed {
		return nil, fmt.Errorf("privacy must be open or closed: %w", ErrValidation)
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tournament %s: %w", tournamentID, ErrNotFound)
		}
		return nil, err
	}
	if !tournament.MatchType.IsValid() {
		return nil, fmt.Errorf("tournament has unknown match type %q: %w", tournament.MatchType, ErrValidation)
	}
	if tournament.MatchType == models.MatchTypeSolo {
		return nil, ErrSoloTeamsDisabled
	}

	var enrollment models.Enrollment
	err := s.DB.Where("tournament_id = ? AND user_id = ?", tournamentID, userID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	taken, err := s.hasMembership(tournamentID, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyInTeam
	}

	team := models.Team{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         strings.TrimSpace(req.Name),
		Tag:          normalizeTag(req.Tag),
		Description:  req.Description,
		LogoURL:      req.LogoURL,
		Privacy:      privacy,
		OwnerID:      userID,
	}
	owner := models.TeamMember{
		ID:           uuid.NewString(),
		TeamID:       team.ID,
		TournamentID: tournamentID,
		UserID:       userID,
		Role:         models.TeamRoleOwner,
		Status:       models.TeamMemberAccepted,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(&team).Error; err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		return setEnrollmentTeam(tx, tournamentID, userID, &team.ID)
	})
	if err != nil {
		return nil, err
	}

	team.Members = []models.TeamMember{owner}
	return &team, nil
}

// joinTeam adds the user to a team. Open teams accept directly, with the
// capacity re-checked inside the transaction; closed teams queue a pending
// request that does not consume a slot until acceptance.
func (s *TeamService) joinTeam(teamID, userID string) (*models.TeamMember, error) {
	team, tournament, err := s.fetchTeam(teamID)
	if err != nil {
		return nil, err
	}

	var enrollment models.Enrollment
	err = s.DB.Where("tournament_id = ? AND user_id = ?", team.TournamentID, userID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	taken, err := s.hasMembership(team.TournamentID, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyInTeam
	}

	capacity := tournament.MatchType.TeamCapacity()

	member := models.TeamMember{
		ID:           uuid.NewString(),
		TeamID:       team.ID,
		TournamentID: team.TournamentID,
		UserID:       userID,
		Role:         models.TeamRoleMember,
	}

	if team.Privacy == models.TeamPrivacyClosed {
		member.Status = models.TeamMemberPending
		if err := s.DB.Create(&member).Error; err != nil {
			return nil, fmt.Errorf("failed to create join request: %w", err)
		}
		s.Notifications.Notify(team.OwnerID,
			"New join request",
			fmt.Sprintf("%s wants to join %s. Review the request from your team page.", enrollment.InGameName, team.Name),
			models.NotifTeamJoinNotice, team.ID)
		return &member, nil
	}

	member.Status = models.TeamMemberAccepted
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		count, err := acceptedCount(tx, team.ID)
		if err != nil {
			return err
		}
		if int(count) >= capacity {
			return ErrTeamFull
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		return setEnrollmentTeam(tx, team.TournamentID, userID, &team.ID)
	})
	if err != nil {
		return nil, err
	}

	s.Notifications.Notify(team.OwnerID,
		"New team member",
		fmt.Sprintf("%s joined %s.", enrollment.InGameName, team.Name),
		models.NotifTeamAccepted, team.ID)
	return &member, nil
}

// acceptRequest flips a pending request to accepted, re-validating capacity
// at the moment of acceptance. First accepted wins; a later acceptance
// against a now-full team fails.
func (s *TeamService) acceptRequest(teamID, requestID, callerID string) error {
	team, tournament, err := s.fetchTeam(teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != callerID {
		return ErrNotTeamOwner
	}

	var request models.TeamMember
	err = s.DB.Where("id = ? AND team_id = ?", requestID, teamID).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("join request %s: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if request.Status != models.TeamMemberPending {
		return fmt.Errorf("request is not pending: %w", ErrValidation)
	}

	capacity := tournament.MatchType.TeamCapacity()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		count, err := acceptedCount(tx, teamID)
		if err != nil {
			return err
		}
		if int(count) >= capacity {
			return ErrTeamFull
		}
		if err := tx.Model(&models.TeamMember{}).
			Where("id = ?", request.ID).
			Update("status", models.TeamMemberAccepted).Error; err != nil {
			return fmt.Errorf("failed to accept request: %w", err)
		}
		return setEnrollmentTeam(tx, team.TournamentID, request.UserID, &team.ID)
	})
	if err != nil {
		return err
	}

	s.Notifications.Notify(request.UserID,
		"Join request accepted",
		fmt.Sprintf("You are now a member of %s.", team.Name),
		models.NotifTeamAccepted, team.ID)
	return nil
}

// rejectRequest deletes a pending request
func (s *TeamService) rejectRequest(teamID, requestID, callerID string) error {
	team, _, err := s.fetchTeam(teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != callerID {
		return ErrNotTeamOwner
	}

	var request models.TeamMember
	err = s.DB.Where("id = ? AND team_id = ? AND status = ?", requestID, teamID, models.TeamMemberPending).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("pending join request %s: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if err := s.DB.Delete(&request).Error; err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}

	s.Notifications.Notify(request.UserID,
		"Join request rejected",
		fmt.Sprintf("Your request to join %s was declined.", team.Name),
		models.NotifTeamRejected, team.ID)
	return nil
}

// removeMember deletes a member row on the owner's behalf. The owner
// cannot remove themselves; that path is leaveTeam.
func (s *TeamService) removeMember(teamID, memberID, callerID string) error {
	team, _, err := s.fetchTeam(teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != callerID {
		return ErrNotTeamOwner
	}

	var member models.TeamMember
	err = s.DB.Where("id = ? AND team_id = ?", memberID, teamID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("team member %s: %w", memberID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if member.UserID == callerID {
		return fmt.Errorf("owner cannot remove themselves, leave the team instead: %w", ErrValidation)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&member).Error; err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return setEnrollmentTeam(tx, team.TournamentID, member.UserID, nil)
	})
	if err != nil {
		return err
	}

	s.Notifications.Notify(member.UserID,
		"Removed from team",
		fmt.Sprintf("You were removed from %s by the team owner.", team.Name),
		models.NotifTeamRemoved, team.ID)
	return nil
}

// leaveTeam deletes the caller's member row. When the owner leaves,
// ownership transfers to the earliest-joined remaining accepted member; if
// nobody remains the team is kept as an ownerless record.
func (s *TeamService) leaveTeam(teamID, userID string) error {
	team, _, err := s.fetchTeam(teamID)
	if err != nil {
		return err
	}

	var member models.TeamMember
	err = s.DB.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user is not a member of this team: %w", ErrNotFound)
	}
	if err != nil {
		return err
	}

	var newOwner *models.TeamMember
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&member).Error; err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		if err := setEnrollmentTeam(tx, team.TournamentID, userID, nil); err != nil {
			return err
		}

		if member.Role != models.TeamRoleOwner {
			return nil
		}

		var successor models.TeamMember
		err := tx.Where("team_id = ? AND status = ?", teamID, models.TeamMemberAccepted).
			Order("joined_at ASC, id ASC").
			First(&successor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Last member out: the team stays as an ownerless record.
			return tx.Model(&models.Team{}).Where("id = ?", teamID).Update("owner_id", "").Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&models.TeamMember{}).
			Where("id = ?", successor.ID).
			Update("role", models.TeamRoleOwner).Error; err != nil {
			return fmt.Errorf("failed to promote successor: %w", err)
		}
		if err := tx.Model(&models.Team{}).
			Where("id = ?", teamID).
			Update("owner_id", successor.UserID).Error; err != nil {
			return fmt.Errorf("failed to transfer ownership: %w", err)
		}
		newOwner = &successor
		return nil
	})
	if err != nil {
		return err
	}

	if newOwner != nil {
		s.Notifications.Notify(newOwner.UserID,
			"You are now the team owner",
			fmt.Sprintf("The previous owner left %s and ownership passed to you.", team.Name),
			models.NotifTeamOwnership, team.ID)
	}
	return nil
}

// getRoster returns the composed team + ordered member list, owner first,
// each member joined to its player snapshot.
func (s *TeamService) getRoster(teamID string) (*models.TeamRoster, error) {
	team, tournament, err := s.fetchTeam(teamID)
	if err != nil {
		return nil, err
	}

	var members []models.TeamRosterMember
	err = s.DB.Table("team_members").
		Select("team_members.*, COALESCE(player_profiles.username, '') AS username, player_profiles.profile_picture_url").
		Joins("LEFT JOIN player_profiles ON player_profiles.external_user_id = team_members.user_id AND player_profiles.deleted_at IS NULL").
		Where("team_members.team_id = ?", teamID).
		Order("CASE WHEN team_members.role = 'owner' THEN 0 ELSE 1 END, team_members.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}

	accepted := 0
	for _, m := range members {
		if m.Status == models.TeamMemberAccepted {
			accepted++
		}
	}

	return &models.TeamRoster{
		Team:          *team,
		Members:       members,
		AcceptedCount: accepted,
		Capacity:      tournament.MatchType.TeamCapacity(),
	}, nil
}

// --- Fiber handlers ---

// CreateTeam handles POST /tournaments/:id/teams
func (s *TeamService) CreateTeam(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	team, err := s.createTeam(c.Params("id"), userID, req)
	if err != nil {
		if httpStatus(err) == fiber.StatusInternalServerError {
			log.Printf("[Team] ❌ create failed for user %s: %v", userID, err)
		}
		return respondError(c, err)
	}
	return c.Status(201).JSON(team)
}

// ListTournamentTeams handles GET /tournaments/:id/teams
func (s *TeamService) ListTournamentTeams(c *fiber.Ctx) error {
	var teams []models.Team
	err := s.DB.Where("tournament_id = ?", c.Params("id")).
		Preload("Members", "status = ?", models.TeamMemberAccepted).
		Order("created_at ASC").
		Find(&teams).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch teams"})
	}
	return c.JSON(teams)
}

// GetTeamRoster handles GET /teams/:id
func (s *TeamService) GetTeamRoster(c *fiber.Ctx) error {
	roster, err := s.getRoster(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(roster)
}

// JoinTeam handles POST /teams/:id/join
func (s *TeamService) JoinTeam(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	member, err := s.joinTeam(c.Params("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(member)
}

// AcceptJoinRequest handles POST /teams/:id/requests/:request_id/accept
func (s *TeamService) AcceptJoinRequest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.acceptRequest(c.Params("id"), c.Params("request_id"), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "request accepted"})
}

// RejectJoinRequest handles POST /teams/:id/requests/:request_id/reject
func (s *TeamService) RejectJoinRequest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.rejectRequest(c.Params("id"), c.Params("request_id"), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "request rejected"})
}

// RemoveTeamMember handles DELETE /teams/:id/members/:member_id
func (s *TeamService) RemoveTeamMember(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.removeMember(c.Params("id"), c.Params("member_id"), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "member removed"})
}

// LeaveTeam handles POST /teams/:id/leave
func (s *TeamService) LeaveTeam(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.leaveTeam(c.Params("id"), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "left team"})
}
