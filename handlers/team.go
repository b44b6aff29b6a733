package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tournament-arena-system/middleware"
	"tournament-arena-system/services"
)

func SetupTeamRoutes(app *fiber.App, teamService *services.TeamService) {
	// 🔓 Public roster browsing
	app.Get("/tournaments/:id/teams", teamService.ListTournamentTeams)
	app.Get("/teams/:id", teamService.GetTeamRoster)

	// 🔐 Authenticated membership actions
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Post("/tournaments/:id/teams", teamService.CreateTeam)
	secured.Post("/teams/:id/join", teamService.JoinTeam)
	secured.Post("/teams/:id/requests/:request_id/accept", teamService.AcceptJoinRequest)
	secured.Post("/teams/:id/requests/:request_id/reject", teamService.RejectJoinRequest)
	secured.Delete("/teams/:id/members/:member_id", teamService.RemoveTeamMember)
	secured.Post("/teams/:id/leave", teamService.LeaveTeam)
}
