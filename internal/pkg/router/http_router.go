package router

import (
	"github.com/MaxKoenig/ClubSync/app/controllers"
	"github.com/MaxKoenig/ClubSync/internal/pkg/oauth"
	"github.com/MaxKoenig/ClubSync/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Initialize calendar controllers with repositories
	controllers.InitializeCalendarControllers()

	// Consent flow
	app.Get("/calendar/connect/:slug", controllers.HandleConnect)
	app.Get("/calendar/reauth", controllers.HandleReauth)
	app.Get("/auth/google", controllers.HandleAuthStart)
	app.Get("/auth/google/callback", controllers.HandleAuthCallback)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
