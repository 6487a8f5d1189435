package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MaxKoenig/ClubSync/internal/pkg/googlecal"
	"github.com/MaxKoenig/ClubSync/internal/pkg/metrics/counter"
)

const (
	renewalRequestTimeout = 5 * time.Minute
	maxRenewalWindowHours = 24 * 14
)

type renewalRunner interface {
	RenewExpiring(ctx context.Context, within time.Duration) (googlecal.BatchSummary, error)
}

// CalendarCronController exposes the renewal batch behind the cron secret.
type CalendarCronController struct {
	scheduler renewalRunner
}

func NewCalendarCronController(scheduler renewalRunner) *CalendarCronController {
	return &CalendarCronController{scheduler: scheduler}
}

// HandleRenewWatches processes GET /api/cron/renew-watches. The optional
// hours query widens or narrows the expiry window for the run.
func (ctrl *CalendarCronController) HandleRenewWatches(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours <= 0 || hours > maxRenewalWindowHours {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "hours must be between 1 and 336",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), renewalRequestTimeout)
	defer cancel()

	summary, err := ctrl.scheduler.RenewExpiring(ctx, time.Duration(hours)*time.Hour)
	if err != nil {
		log.Printf("[Cron] Renewal run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "renewal run failed",
		})
	}

	if summary.Total() == 0 {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"renewed": 0,
			"status":  "no expiries",
		})
	}

	if err := counter.AddRenewalRun(summary.Renewed, summary.Failed); err != nil {
		log.Printf("[Cron] Counter update failed: %v", err)
	}

	log.Printf("[Cron] Renewal run finished: %d renewed, %d failed", summary.Renewed, summary.Failed)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"renewed": summary.Renewed,
		"failed":  summary.Failed,
	})
}
