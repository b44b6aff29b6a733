package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tournament-arena-system/middleware"
	"tournament-arena-system/services"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService, notificationService *services.NotificationService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/users/me/referral-code", referralService.GetMyReferralCode)
	secured.Get("/referral-codes/:code/validate", referralService.ValidateReferralCode)
	secured.Get("/users/me/referral-stats", referralService.GetMyReferralStats)

	secured.Get("/users/me/notifications", notificationService.GetMyNotifications)
	secured.Patch("/notifications/:id/read", notificationService.MarkNotificationRead)
}
