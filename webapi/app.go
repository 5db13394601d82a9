package webapi

import (
	"net/http"

	fiber "github.com/gofiber/fiber/v2"
)

type App struct {
	config *Config
	*fiber.App
}

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)

	webapp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	a := &App{
		config: config,
		App:    webapp,
	}

	a.registerRoutes(webapp)

	return a
}

func errorJSONMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(struct {
		Error string `json:"error"`
	}{Error: message})
}

func serverError(c *fiber.Ctx, message string) error {
	return errorJSONMessage(c, http.StatusInternalServerError, message)
}
