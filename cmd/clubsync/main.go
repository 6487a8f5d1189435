package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MaxKoenig/ClubSync/app/controllers"
	"github.com/MaxKoenig/ClubSync/internal/pkg/cache"
	"github.com/MaxKoenig/ClubSync/internal/pkg/database"
	"github.com/MaxKoenig/ClubSync/internal/pkg/env"
	"github.com/MaxKoenig/ClubSync/internal/pkg/googlecal"
	"github.com/MaxKoenig/ClubSync/internal/pkg/router"
	"github.com/MaxKoenig/ClubSync/internal/pkg/scheduler"
)

func main() {
	app := NewApplication()

	// Optional in-process renewal ticker for deployments without an
	// external cron hitting /api/cron/renew-watches.
	var renewals *scheduler.Manager
	if env.GetEnv("RENEWAL_INTERNAL_TICKER", "0") == "1" {
		renewals = scheduler.NewManager(controllers.GetRenewalScheduler(), time.Hour, googlecal.DefaultRenewalWindow)
		renewals.Start()
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if renewals != nil {
			renewals.Stop()
		}
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/clubsync to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "ClubSync",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
