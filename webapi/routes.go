package webapi

import (
	fiber "github.com/gofiber/fiber/v2"
)

func (a *App) registerRoutes(webapp *fiber.App) {
	webapp.Post("/analyze-action", a.AnalyzeAction())
	webapp.Post("/execute-action", a.ExecuteAction())
	webapp.Post("/approve-action", a.ApproveAction())
	webapp.Get("/actions/:user_id", a.ListActions())
}
