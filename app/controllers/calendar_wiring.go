package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/MaxKoenig/ClubSync/app/repository"
	"github.com/MaxKoenig/ClubSync/internal/pkg/calendarsync"
	"github.com/MaxKoenig/ClubSync/internal/pkg/googlecal"
	"github.com/MaxKoenig/ClubSync/internal/pkg/mail"
)

var (
	calendarRepos     *repository.Repositories
	watchManager      *googlecal.WatchManager
	renewalScheduler  *googlecal.RenewalScheduler
	webhookController *CalendarWebhookController
	cronController    *CalendarCronController
)

// InitializeCalendarControllers wires the calendar stack: token refresh,
// watch lifecycle, renewal batch and the sync engine, all on top of the
// repository factory. Must run after database setup and before routing.
func InitializeCalendarControllers() {
	cfg, err := googlecal.ConfigFromEnv()
	if err != nil {
		log.Fatalf("[Calendar] %v", err)
	}

	calendarRepos = repository.GetGlobalFactory().GetRepositories()

	tokens := googlecal.NewTokenManager(calendarRepos.Credential, cfg.OAuth())
	watchManager = googlecal.NewWatchManager(
		calendarRepos.Organization,
		calendarRepos.Watch,
		tokens,
		googlecal.NewProvider(),
		cfg.WebhookAddress,
	)
	engine := calendarsync.NewGoogleEngine(calendarRepos.Organization, calendarRepos.Event)

	renewalScheduler = googlecal.NewRenewalScheduler(calendarRepos.Watch, watchManager)
	renewalScheduler.OnReauthRequired = func(orgID uint) {
		org, err := calendarRepos.Organization.GetByID(orgID)
		if err != nil {
			log.Printf("[Calendar] Re-auth alert skipped, organization %d lookup failed: %v", orgID, err)
			return
		}
		if err := mail.SendReauthAlert(org.Name); err != nil {
			log.Printf("[Calendar] Re-auth alert for %s failed: %v", org.Name, err)
		}
	}

	webhookController = NewCalendarWebhookController(calendarRepos.Watch, tokens, engine)
	cronController = NewCalendarCronController(renewalScheduler)
}

// GetRenewalScheduler exposes the shared scheduler for the optional
// in-process ticker.
func GetRenewalScheduler() *googlecal.RenewalScheduler {
	return renewalScheduler
}

func getRepositories() *repository.Repositories {
	return calendarRepos
}

func getWatchManager() *googlecal.WatchManager {
	return watchManager
}

// HandleCalendarWebhook processes POST /api/calendar/webhook
func HandleCalendarWebhook(c *fiber.Ctx) error {
	return webhookController.HandleNotification(c)
}

// HandleRenewWatches processes GET /api/cron/renew-watches
func HandleRenewWatches(c *fiber.Ctx) error {
	return cronController.HandleRenewWatches(c)
}
