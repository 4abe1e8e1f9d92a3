package sync

import (
	"errors"

	"nursery-sync/core/logger"
	"nursery-sync/feature/events/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for scrape and sync runs.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, l *zap.Logger) *Handler {
	return &Handler{service: service, logger: l}
}

// RegisterRoutes registers the scrape, sync and progress routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/scrape/:service", h.HandleScrape)
	app.Get("/events/missing", h.HandleMissing)
	app.Post("/sync/entries", h.HandleSyncEntries)
	app.Post("/sync/missing", h.HandleSyncMissing)
	app.Get("/progress", h.HandleProgress)
}

type scrapePayload struct {
	DaysBack int `json:"days_back"`
}

// HandleScrape runs a scrape for one service and replaces its events.
// @Summary Run a scrape
// @Description Scrape one service, archive the raw capture and replace its stored events.
// @Tags sync
// @Accept json
// @Produce json
// @Param service path string true "Service (source or target)"
// @Param payload body scrapePayload false "Day range"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /scrape/{service} [post]
func (h *Handler) HandleScrape(c *fiber.Ctx) error {
	service := c.Params("service")
	if service != models.SystemSource && service != models.SystemTarget {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "service must be 'source' or 'target'",
		})
	}
	payload := scrapePayload{DaysBack: 7}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
	}

	l := logger.WithRayID(h.logger, c)
	stored, err := h.service.ScrapeAndStore(c.Context(), service, payload.DaysBack)
	if err != nil {
		if errors.Is(err, ErrRunInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Scrape run failed", zap.String("service", service), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"service": service, "stored": stored})
}

// HandleMissing returns the ids of events currently in the missing set.
// @Summary Missing set
// @Description Source events with no target counterpart that pass the filters, oldest first.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string][]uint
// @Router /events/missing [get]
func (h *Handler) HandleMissing(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	ids, err := h.service.MissingEventIDs(c.Context())
	if err != nil {
		l.Error("Failed to resolve missing set", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if ids == nil {
		ids = []uint{}
	}
	return c.JSON(fiber.Map{"event_ids": ids})
}

type syncPayload struct {
	EventIDs []uint `json:"event_ids"`
}

// HandleSyncEntries syncs an explicit list of source events.
// @Summary Sync selected entries
// @Tags sync
// @Accept json
// @Produce json
// @Param payload body syncPayload true "Event ids to sync"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /sync/entries [post]
func (h *Handler) HandleSyncEntries(c *fiber.Ctx) error {
	var payload syncPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if len(payload.EventIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_ids is required"})
	}

	l := logger.WithRayID(h.logger, c)
	result, err := h.service.Sync(c.Context(), payload.EventIDs)
	if err != nil {
		if errors.Is(err, ErrRunInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleSyncMissing resolves the missing set and syncs all of it.
// @Summary Sync the missing set
// @Tags sync
// @Produce json
// @Success 200 {object} Result
// @Failure 409 {object} map[string]string
// @Router /sync/missing [post]
func (h *Handler) HandleSyncMissing(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	result, err := h.service.SyncMissing(c.Context())
	if err != nil {
		if errors.Is(err, ErrRunInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleProgress returns the latest run progress for all services.
// @Summary Run progress
// @Tags sync
// @Produce json
// @Success 200 {array} models.RunProgress
// @Router /progress [get]
func (h *Handler) HandleProgress(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	rows, err := h.service.Progress()
	if err != nil {
		l.Error("Failed to load run progress", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if rows == nil {
		rows = []models.RunProgress{}
	}
	return c.JSON(rows)
}
