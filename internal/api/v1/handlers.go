package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MaxKoenig/ClubSync/app/repository"
)

// ServerInterface is the contract the v1 router binds handlers against.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetOrganizationEvents(c *fiber.Ctx, slug string) error
}

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Get("/organizations/:slug/events", func(c *fiber.Ctx) error {
		return si.GetOrganizationEvents(c, c.Params("slug"))
	})
}

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

const maxEventPageSize = 200

// GetOrganizationEvents returns the synced events of an organization, newest
// first, with offset/limit paging.
func (s *APIServer) GetOrganizationEvents(c *fiber.Ctx, slug string) error {
	factory := repository.GetGlobalFactory()

	org, err := factory.GetOrganizationRepository().GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown organization",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "organization lookup failed",
		})
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxEventPageSize {
		limit = 50
	}

	events := factory.GetEventRepository()
	items, err := events.GetByOrganizationID(org.ID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "event lookup failed",
		})
	}
	total, err := events.CountByOrganizationID(org.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "event lookup failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"organization": org.Slug,
		"total":        total,
		"offset":       offset,
		"limit":        limit,
		"events":       items,
	})
}
