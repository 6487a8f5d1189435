package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/MaxKoenig/ClubSync/app/models"
	"github.com/MaxKoenig/ClubSync/internal/pkg/session"
)

const (
	connectOrgKey      = "connect_org_id"
	connectReturnToKey = "connect_return_to"
	reauthNotifiedKey  = "reauth_notified"

	connectWatchTimeout = 60 * time.Second
)

// HandleConnect starts the consent flow for an organization's calendar:
// GET /calendar/connect/:slug. It remembers which organization is being
// connected and where to return to, then hands off to the provider flow.
// The provider is configured for forced consent, so the callback always
// receives a refresh token on this path.
func HandleConnect(c *fiber.Ctx) error {
	slug := c.Params("slug")
	org, err := getRepositories().Organization.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("unknown organization")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("organization lookup failed")
	}

	if err := session.SetSessionValue(c, connectOrgKey, strconv.FormatUint(uint64(org.ID), 10)); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	returnTo := c.Query("return_to", "/organizations/"+org.Slug)
	if err := session.SetSessionValue(c, connectReturnToKey, returnTo); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}

	return c.Redirect("/auth/google", fiber.StatusSeeOther)
}

// HandleAuthStart processes GET /auth/google
func HandleAuthStart(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleAuthCallback completes the provider flow, stores the credential and
// registers the first watch channel for the organization.
func HandleAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	orgIDRaw := session.GetSessionValue(c, connectOrgKey)
	orgID64, err := strconv.ParseUint(orgIDRaw, 10, 64)
	if err != nil || orgID64 == 0 {
		return c.Status(fiber.StatusBadRequest).SendString("no organization selected for this consent")
	}
	orgID := uint(orgID64)
	session.DeleteSessionValue(c, connectOrgKey)

	repos := getRepositories()

	cred := &models.CalendarCredential{
		OrganizationID:    orgID,
		ProviderAccountID: u.UserID,
		AccessToken:       u.AccessToken,
		RefreshToken:      u.RefreshToken,
	}
	if !u.ExpiresAt.IsZero() {
		t := u.ExpiresAt
		cred.ExpiresAt = &t
	}
	// Google omits the refresh token when consent is already on file; keep
	// the stored one in that case instead of downgrading the credential.
	if u.RefreshToken == "" {
		if existing, err := repos.Credential.GetByOrganizationID(orgID); err == nil {
			cred.RefreshToken = existing.RefreshToken
		}
	}
	if err := repos.Credential.Upsert(cred); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("store credential failed: %v", err))
	}

	fm := fiber.Map{
		"type": "success",
	}

	// Fresh consent means a fresh channel. Superseded channels are torn down
	// afterwards so a reconnect does not pile up registrations.
	ctx, cancel := context.WithTimeout(c.UserContext(), connectWatchTimeout)
	defer cancel()
	watches := getWatchManager()
	created, err := watches.CreateWatch(ctx, orgID)
	if err != nil {
		log.Printf("[Connect] Watch registration for organization %d failed: %v", orgID, err)
		fm["type"] = "error"
		fm["message"] = "Calendar connected, but change notifications could not be enabled yet"
		return flash.WithError(c, fm).Redirect(returnToTarget(c))
	}
	if err := watches.StopWatch(ctx, orgID, created.ChannelID); err != nil {
		log.Printf("[Connect] Cleanup of superseded channels for organization %d failed: %v", orgID, err)
	}

	session.DeleteSessionValue(c, reauthNotifiedKey)
	fm["message"] = "Calendar connected"
	return flash.WithSuccess(c, fm).Redirect(returnToTarget(c))
}

// HandleReauth processes GET /calendar/reauth?org=<slug>. It is hit by
// frontend code when an API response signals a dead credential; the session
// guard keeps a burst of such responses from stacking consent redirects.
func HandleReauth(c *fiber.Ctx) error {
	slug := c.Query("org")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).SendString("org query parameter required")
	}
	org, err := getRepositories().Organization.GetBySlug(slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("unknown organization")
	}

	if session.GetSessionValue(c, reauthNotifiedKey) == slug {
		return c.SendStatus(fiber.StatusNoContent)
	}
	_ = session.SetSessionValue(c, reauthNotifiedKey, slug)

	if _, err := goth.GetProvider("google"); err != nil {
		log.Printf("[Connect] Re-auth requested but provider is not configured: %v", err)
		return c.SendStatus(fiber.StatusNoContent)
	}

	_ = session.SetSessionValue(c, connectOrgKey, strconv.FormatUint(uint64(org.ID), 10))
	returnTo := c.Query("return_to", "/organizations/"+org.Slug)
	_ = session.SetSessionValue(c, connectReturnToKey, returnTo)

	return c.Redirect("/auth/google", fiber.StatusSeeOther)
}

func returnToTarget(c *fiber.Ctx) string {
	returnTo := session.GetSessionValue(c, connectReturnToKey)
	session.DeleteSessionValue(c, connectReturnToKey)
	if returnTo == "" {
		returnTo = "/"
	}
	return returnTo
}
