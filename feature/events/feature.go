package events

import (
	"nursery-sync/core/loader"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature bundles the event service and its HTTP surface.
type Feature struct {
	service *Service
	logger  *zap.Logger
}

var _ loader.Feature = (*Feature)(nil)

// NewFeature creates the events feature around an existing service.
func NewFeature(service *Service, l *zap.Logger) *Feature {
	return &Feature{service: service, logger: l}
}

// Name returns the feature name.
func (f *Feature) Name() string { return "events" }

// IsEnabled reports whether the feature is active.
func (f *Feature) IsEnabled() bool { return true }

// Load registers the event routes.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service, f.logger).RegisterRoutes(app)
	return nil
}

// Service exposes the underlying event service to sibling features.
func (f *Feature) Service() *Service { return f.service }
