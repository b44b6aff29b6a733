package services

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"tournament-arena-system/models"
)

type TournamentService struct {
	DB *gorm.DB
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db}
}

// CreateTournament handles POST /admin/tournaments
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	var req struct {
		Name            string           `json:"name" validate:"required"`
		GameTitle       string           `json:"game_title"`
		Description     string           `json:"description"`
		Rules           string           `json:"rules"`
		MatchType       models.MatchType `json:"match_type" validate:"required,oneof=solo duo squad"`
		EntryFee        float64          `json:"entry_fee"`
		PrizePool       string           `json:"prize_pool"`
		MaxParticipants int              `json:"max_participants"`
		BannerURL       string           `json:"banner_url"`
		StartTime       time.Time        `json:"start_time" validate:"required"`
		EndTime         time.Time        `json:"end_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if !req.MatchType.IsValid() {
		return c.Status(400).JSON(fiber.Map{"error": "match_type must be solo, duo or squad"})
	}
	if req.EntryFee < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "entry_fee must be non-negative"})
	}
	if req.MaxParticipants < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "max_participants must be non-negative"})
	}
	if req.StartTime.IsZero() {
		return c.Status(400).JSON(fiber.Map{"error": "start_time is required (RFC3339)"})
	}

	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Slug:            slug.Make(req.Name) + "-" + uuid.NewString()[:8],
		GameTitle:       req.GameTitle,
		Description:     req.Description,
		Rules:           req.Rules,
		MatchType:       req.MatchType,
		EntryFee:        req.EntryFee,
		PrizePool:       req.PrizePool,
		MaxParticipants: req.MaxParticipants,
		BannerURL:       req.BannerURL,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          models.TournamentUpcoming,
	}

	if err := s.DB.Create(tournament).Error; err != nil {
		log.Printf("[Tournament] ❌ create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(tournament)
}

// GetAllTournaments handles GET /tournaments with optional status filter
func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	query := s.DB.Order("start_time ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tournaments []models.Tournament
	if err := query.Find(&tournaments).Error; err != nil {
		log.Printf("[Tournament] ❌ list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetAllTournamentsMini returns the trimmed listing with live enrolled
// counts joined in one query.
func (s *TournamentService) GetAllTournamentsMini(c *fiber.Ctx) error {
	var tournaments []models.MiniTournament
	query := `
        SELECT
            t.id,
            t.name,
            t.slug,
            t.game_title,
            t.match_type,
            t.entry_fee,
            t.prize_pool,
            t.max_participants,
            t.current_participants,
            t.status,
            t.banner_url,
            t.start_time,
            t.end_time,
            t.created_at,
            COUNT(e.id) AS enrolled_count
        FROM tournaments t
        LEFT JOIN enrollments e ON t.id = e.tournament_id AND e.deleted_at IS NULL
        WHERE t.deleted_at IS NULL
        GROUP BY t.id
        ORDER BY t.start_time ASC
    `
	if err := s.DB.Raw(query).Scan(&tournaments).Error; err != nil {
		log.Printf("[Tournament] ❌ mini list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetTournamentByID handles GET /tournaments/:id
func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(tournament)
}

// statusRank orders the one-way lifecycle
func statusRank(s models.TournamentStatus) int {
	switch s {
	case models.TournamentUpcoming:
		return 0
	case models.TournamentOngoing:
		return 1
	case models.TournamentCompleted:
		return 2
	}
	return -1
}

// UpdateTournamentStatus handles PATCH /admin/tournaments/:id/status.
// The lifecycle only moves forward: upcoming → ongoing → completed.
func (s *TournamentService) UpdateTournamentStatus(c *fiber.Ctx) error {
	var req struct {
		Status models.TournamentStatus `json:"status" validate:"required,oneof=upcoming ongoing completed"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if statusRank(req.Status) < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "status must be upcoming, ongoing or completed"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	if statusRank(req.Status) <= statusRank(tournament.Status) {
		return c.Status(400).JSON(fiber.Map{
			"error":   "status can only move forward",
			"current": tournament.Status,
		})
	}

	if err := s.DB.Model(&tournament).Update("status", req.Status).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "status update failed"})
	}
	return c.JSON(fiber.Map{"message": "status updated", "tournament": tournament})
}

// GetSupportedMatchTypes handles GET /match-types
func (s *TournamentService) GetSupportedMatchTypes(c *fiber.Ctx) error {
	types := []fiber.Map{}
	for _, m := range []models.MatchType{models.MatchTypeSolo, models.MatchTypeDuo, models.MatchTypeSquad} {
		types = append(types, fiber.Map{
			"match_type":    m,
			"team_capacity": m.TeamCapacity(),
		})
	}
	return c.JSON(types)
}

// SearchPlayers searches the local player snapshot table
func (s *TournamentService) SearchPlayers(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.Model(&models.PlayerProfile{}).Limit(limit)
	if query != "" {
		db = db.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(query))+"%")
	}

	var players []models.PlayerProfile
	if err := db.Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to search players"})
	}
	return c.JSON(players)
}
