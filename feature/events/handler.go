package events

import (
	"errors"
	"strconv"

	"nursery-sync/core/logger"
	"nursery-sync/feature/events/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for events and settings.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, l *zap.Logger) *Handler {
	return &Handler{service: service, logger: l}
}

// RegisterRoutes registers the event and settings routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/events", h.HandleListEvents)
	app.Get("/events/pairs", h.HandleListPairs)
	app.Post("/events/:id/ignore", h.HandleToggleIgnore)

	app.Get("/captures", h.HandleListCaptures)
	app.Post("/captures/replay", h.HandleReplayCapture)
	app.Delete("/captures", h.HandleDeleteCapture)

	settings := app.Group("/settings")
	settings.Get("/sync-preferences", h.HandleGetSyncPreferences)
	settings.Put("/sync-preferences", h.HandleSetSyncPreferences)
	settings.Get("/event-mapping", h.HandleGetEventMapping)
	settings.Put("/event-mapping", h.HandleSetEventMapping)
}

// HandleListEvents returns the most recent events for one system.
// @Summary List events
// @Description List a system's canonical events, newest first, with matched/ignored flags.
// @Tags events
// @Produce json
// @Param source query string true "Source system (source or target)"
// @Param limit query int false "Maximum rows (default 100)"
// @Success 200 {array} models.Event
// @Failure 400 {object} map[string]string
// @Router /events [get]
func (h *Handler) HandleListEvents(c *fiber.Ctx) error {
	system := c.Query("source")
	if system != models.SystemSource && system != models.SystemTarget {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "source must be 'source' or 'target'",
		})
	}
	limit := c.QueryInt("limit", 100)

	l := logger.WithRayID(h.logger, c)
	evs, err := h.service.ListEvents(c.Context(), system, limit)
	if err != nil {
		l.Error("Failed to list events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if evs == nil {
		evs = []*models.Event{}
	}
	return c.JSON(evs)
}

// HandleListPairs returns the current matched-pair view.
// @Summary Matched pair view
// @Description Reconciliation output: matched, source-only and target-only rows, newest first.
// @Tags events
// @Produce json
// @Success 200 {array} reconcile.MatchedPair
// @Router /events/pairs [get]
func (h *Handler) HandleListPairs(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	pairs, err := h.service.Pairs(c.Context())
	if err != nil {
		l.Error("Failed to build matched pairs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(pairs)
}

type ignorePayload struct {
	Ignored bool `json:"ignored"`
}

// HandleToggleIgnore sets or clears the sticky ignored flag.
// @Summary Toggle ignored flag
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event id"
// @Param payload body ignorePayload true "Desired flag"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /events/{id}/ignore [post]
func (h *Handler) HandleToggleIgnore(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}
	var payload ignorePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	l := logger.WithRayID(h.logger, c)
	if err := h.service.SetIgnored(c.Context(), uint(id), payload.Ignored); err != nil {
		if errors.Is(err, ErrNotSourceEvent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to toggle ignored flag", zap.Uint64("event_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"event_id": id, "ignored": payload.Ignored})
}

// HandleListCaptures lists the archived raw captures.
// @Summary List raw captures
// @Tags captures
// @Produce json
// @Param source query string false "Limit to one system (source or target)"
// @Success 200 {array} CaptureInfo
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /captures [get]
func (h *Handler) HandleListCaptures(c *fiber.Ctx) error {
	system := c.Query("source")
	if system != "" && system != models.SystemSource && system != models.SystemTarget {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "source must be 'source' or 'target'",
		})
	}

	l := logger.WithRayID(h.logger, c)
	infos, err := h.service.ListCaptures(c.Context(), system)
	if err != nil {
		if errors.Is(err, ErrArchiveDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to list captures", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if infos == nil {
		infos = []CaptureInfo{}
	}
	return c.JSON(infos)
}

type capturePayload struct {
	Key string `json:"key"`
}

// HandleReplayCapture re-ingests one archived capture through the
// current normalisation pipeline.
// @Summary Replay a raw capture
// @Tags captures
// @Accept json
// @Produce json
// @Param payload body capturePayload true "Capture key"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /captures/replay [post]
func (h *Handler) HandleReplayCapture(c *fiber.Ctx) error {
	var payload capturePayload
	if err := c.BodyParser(&payload); err != nil || payload.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "capture key is required"})
	}

	l := logger.WithRayID(h.logger, c)
	stored, err := h.service.ReplayCapture(c.Context(), payload.Key)
	if err != nil {
		if errors.Is(err, ErrArchiveDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to replay capture", zap.String("key", payload.Key), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"key": payload.Key, "stored": stored})
}

// HandleDeleteCapture removes one archived capture.
// @Summary Delete a raw capture
// @Tags captures
// @Produce json
// @Param key query string true "Capture key"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /captures [delete]
func (h *Handler) HandleDeleteCapture(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "capture key is required"})
	}

	l := logger.WithRayID(h.logger, c)
	if err := h.service.DeleteCapture(c.Context(), key); err != nil {
		if errors.Is(err, ErrArchiveDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to delete capture", zap.String("key", key), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"key": key, "deleted": true})
}

// HandleGetSyncPreferences returns the active sync-preference filter.
// @Summary Get sync preferences
// @Tags settings
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /settings/sync-preferences [get]
func (h *Handler) HandleGetSyncPreferences(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"include_types": h.service.SyncPreferences(c.Context())})
}

type preferencesPayload struct {
	IncludeTypes []string `json:"include_types"`
}

// HandleSetSyncPreferences replaces the sync-preference filter.
// @Summary Set sync preferences
// @Tags settings
// @Accept json
// @Produce json
// @Param payload body preferencesPayload true "Allowed entry categories"
// @Success 200 {object} map[string][]string
// @Router /settings/sync-preferences [put]
func (h *Handler) HandleSetSyncPreferences(c *fiber.Ctx) error {
	var payload preferencesPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	l := logger.WithRayID(h.logger, c)
	cleaned, err := h.service.SetSyncPreferences(c.Context(), payload.IncludeTypes)
	if err != nil {
		l.Error("Failed to save sync preferences", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"include_types": cleaned})
}

// HandleGetEventMapping returns the raw-label mapping table.
// @Summary Get event type mapping
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]string
// @Router /settings/event-mapping [get]
func (h *Handler) HandleGetEventMapping(c *fiber.Ctx) error {
	return c.JSON(h.service.TypeMapping(c.Context()))
}

// HandleSetEventMapping replaces the raw-label mapping table.
// @Summary Set event type mapping
// @Tags settings
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Raw label to canonical type"
// @Success 200 {object} map[string]string
// @Router /settings/event-mapping [put]
func (h *Handler) HandleSetEventMapping(c *fiber.Ctx) error {
	var payload map[string]string
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	l := logger.WithRayID(h.logger, c)
	if err := h.service.SetTypeMapping(c.Context(), payload); err != nil {
		l.Error("Failed to save event mapping", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h.service.TypeMapping(c.Context()))
}
