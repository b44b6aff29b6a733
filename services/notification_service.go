package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tournament-arena-system/models"
)

// NotificationService is the fire-and-forget sink for user-facing events.
// Delivery mechanics live outside this service; rows here are the record.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// Notify writes one notification row. Failures are logged and swallowed;
// the operation that triggered the notification has already succeeded and
// must not be failed retroactively.
func (s *NotificationService) Notify(userID, title, message string, ntype models.NotificationType, relatedID string) {
	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      ntype,
		RelatedID: relatedID,
	}
	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("[Notify] ⚠️ failed to store %s notification for user %s: %v", ntype, userID, err)
	}
}

// --- Fiber handlers ---

// GetMyNotifications lists the caller's notifications, newest first
func (s *NotificationService) GetMyNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	query := s.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		log.Printf("[Notify] ❌ failed to list notifications for %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch notifications"})
	}
	return c.JSON(notifications)
}

// MarkNotificationRead flips is_read on one of the caller's notifications
func (s *NotificationService) MarkNotificationRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var n models.Notification
	if err := s.DB.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "notification not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Model(&n).Update("is_read", true).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to mark notification read"})
	}
	return c.JSON(fiber.Map{"message": "notification marked read"})
}
