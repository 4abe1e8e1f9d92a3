package sync

import (
	"time"

	"nursery-sync/feature/events/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tracker persists per-service run progress so that observers can poll
// it and so a crashed run leaves an inspectable trail. Progress within a
// run only moves forward; a new run resets the row.
type Tracker struct {
	db *gorm.DB
}

// NewTracker creates a progress tracker backed by the given database.
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// Start resets the service's progress row for a fresh run and returns
// the new run id.
func (t *Tracker) Start(service, message string) (string, error) {
	now := time.Now().UTC()
	row := models.RunProgress{
		Service:   service,
		RunID:     uuid.NewString(),
		Total:     0,
		Processed: 0,
		Status:    models.RunRunning,
		Message:   message,
		Error:     "",
		StartedAt: now,
		UpdatedAt: now,
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return "", err
	}
	return row.RunID, nil
}

// SetTotal records how many items the run will process.
func (t *Tracker) SetTotal(service string, total int) error {
	return t.update(service, map[string]any{"total": total})
}

// SetMessage updates the human-readable status line.
func (t *Tracker) SetMessage(service, message string) error {
	return t.update(service, map[string]any{"message": message})
}

// Increment advances the processed counter by one.
func (t *Tracker) Increment(service string) error {
	return t.db.Model(&models.RunProgress{}).
		Where("service = ?", service).
		Updates(map[string]any{
			"processed":  gorm.Expr("processed + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

// Finish marks the run completed.
func (t *Tracker) Finish(service, message string) error {
	now := time.Now().UTC()
	return t.update(service, map[string]any{
		"status":      models.RunCompleted,
		"message":     message,
		"finished_at": &now,
	})
}

// Fail marks the run failed and records the error text.
func (t *Tracker) Fail(service, errText string) error {
	now := time.Now().UTC()
	return t.update(service, map[string]any{
		"status":      models.RunFailed,
		"error":       errText,
		"finished_at": &now,
	})
}

// Snapshot returns the latest progress rows for all services.
func (t *Tracker) Snapshot() ([]models.RunProgress, error) {
	var rows []models.RunProgress
	if err := t.db.Order("service asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *Tracker) update(service string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return t.db.Model(&models.RunProgress{}).
		Where("service = ?", service).
		Updates(fields).Error
}
