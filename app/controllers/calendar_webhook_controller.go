package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MaxKoenig/ClubSync/app/repository"
	"github.com/MaxKoenig/ClubSync/internal/pkg/calendarsync"
	"github.com/MaxKoenig/ClubSync/internal/pkg/googlecal"
	"github.com/MaxKoenig/ClubSync/internal/pkg/metrics/counter"
	"github.com/MaxKoenig/ClubSync/internal/pkg/security"
)

const webhookSyncTimeout = 60 * time.Second

// CalendarWebhookController receives Google push notifications. The request
// body is ignored on purpose: a notification only says "something changed",
// the actual delta is fetched through the events API.
type CalendarWebhookController struct {
	watches repository.WatchRepository
	tokens  googlecal.AccessTokenSource
	engine  calendarsync.Engine
}

func NewCalendarWebhookController(
	watches repository.WatchRepository,
	tokens googlecal.AccessTokenSource,
	engine calendarsync.Engine,
) *CalendarWebhookController {
	return &CalendarWebhookController{
		watches: watches,
		tokens:  tokens,
		engine:  engine,
	}
}

// HandleNotification processes POST /api/calendar/webhook.
func (ctrl *CalendarWebhookController) HandleNotification(c *fiber.Ctx) error {
	channelID := c.Get("X-Goog-Channel-ID")
	resourceID := c.Get("X-Goog-Resource-ID")
	state := c.Get("X-Goog-Resource-State")
	channelToken := c.Get("X-Goog-Channel-Token")

	// The registration handshake arrives before our watch row is committed in
	// some interleavings, so it is acknowledged before any lookup.
	if state == "sync" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":        true,
			"handshake": true,
		})
	}

	// A real notification always carries all three; anything else is
	// malformed and never reaches the registry.
	if channelID == "" || resourceID == "" || channelToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing notification headers",
		})
	}

	watch, err := ctrl.watches.GetByChannelID(channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Stale channel from before a renewal; Google retries until it
			// expires, we just log and refuse.
			log.Printf("[Webhook] Notification for unknown channel %s", channelID)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown channel",
			})
		}
		log.Printf("[Webhook] Channel lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "channel lookup failed",
		})
	}

	if !security.SecretEqual(channelToken, watch.Secret) || watch.ResourceID != resourceID {
		log.Printf("[Webhook] Rejected notification for channel %s: token or resource mismatch", channelID)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "verification failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookSyncTimeout)
	defer cancel()

	accessToken, err := ctrl.tokens.AccessToken(ctx, watch.OrganizationID, false)
	if err != nil {
		// Includes the needs-reauth case: the notification is real but we
		// cannot act on it until someone re-consents.
		log.Printf("[Webhook] No usable access token for organization %d: %v", watch.OrganizationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sync failed",
		})
	}

	if err := ctrl.engine.SyncCalendar(ctx, watch.OrganizationID, false, accessToken); err != nil {
		log.Printf("[Webhook] Sync for organization %d failed: %v", watch.OrganizationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sync failed",
		})
	}

	if err := counter.AddWebhookNotification(watch.OrganizationID); err != nil {
		log.Printf("[Webhook] Counter update failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok": true,
	})
}
