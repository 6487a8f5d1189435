package router

import (
	"github.com/MaxKoenig/ClubSync/app/controllers"
	apiv1 "github.com/MaxKoenig/ClubSync/internal/api/v1"
	"github.com/MaxKoenig/ClubSync/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Google delivers push notifications here; the handler does its own
	// channel verification, no session or API auth applies.
	api.Post("/calendar/webhook", controllers.HandleCalendarWebhook)

	// Scheduled maintenance, guarded by the shared cron secret
	cron := api.Group("/cron", middleware.CronAuthMiddleware())
	cron.Get("/renew-watches", controllers.HandleRenewWatches)

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
