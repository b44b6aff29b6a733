package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tournament-arena-system/middleware"
	"tournament-arena-system/services"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, enrollmentService *services.EnrollmentService) {
	// 🔓 Public routes
	app.Get("/match-types", tournamentService.GetSupportedMatchTypes)
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/mini", tournamentService.GetAllTournamentsMini)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/players/search", tournamentService.SearchPlayers)
	secured.Post("/tournaments/:id/enroll", enrollmentService.EnrollInTournament)
	secured.Get("/tournaments/:id/enrollments/me", enrollmentService.GetMyEnrollment)
	secured.Get("/users/me/enrollments", enrollmentService.GetMyEnrollments)

	// 🔒 Admin-only routes
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/tournaments", tournamentService.CreateTournament)
	admin.Patch("/tournaments/:id/status", tournamentService.UpdateTournamentStatus)
	admin.Get("/tournaments/:id/enrollments", enrollmentService.GetTournamentEnrollments)
	admin.Patch("/enrollments/:id/payment", enrollmentService.ReviewEnrollmentPayment)
	admin.Patch("/enrollments/:id/room", enrollmentService.AssignRoomCredentials)
}
