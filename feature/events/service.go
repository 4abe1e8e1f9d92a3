package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nursery-sync/feature/events/fingerprint"
	"nursery-sync/feature/events/models"
	"nursery-sync/feature/events/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting names.
const (
	settingSyncPreferences = "sync_preferences"
	settingEventMapping    = "event_mapping"
)

// ErrNotSourceEvent is returned when an ignore toggle targets anything but
// a source-system event.
var ErrNotSourceEvent = errors.New("only source events can be ignored")

// Service owns the event store: canonical events, ignored fingerprints,
// synced markers and the operator-editable settings tables.
type Service struct {
	db      *gorm.DB
	logger  *zap.Logger
	archive *Archive
	cfg     reconcile.Config
	view    *reconcile.ViewCache
}

// NewService creates the event service.
func NewService(db *gorm.DB, logger *zap.Logger, archive *Archive, cfg reconcile.Config) *Service {
	return &Service{
		db:      db,
		logger:  logger,
		archive: archive,
		cfg:     cfg,
		view:    reconcile.NewViewCache(cfg.ViewTTL()),
	}
}

// IngestRawRecords runs the scrape-side pipeline for one system:
// normalise, split, fingerprint, then atomically replace that system's
// stored events. Malformed records are logged and dropped without
// aborting the batch. Returns the number of stored events.
func (s *Service) IngestRawRecords(ctx context.Context, system string, raws []RawRecord) (int, error) {
	mapping := s.TypeMapping(ctx)

	var drafts []*models.Event
	for _, raw := range raws {
		draft, err := Normalise(raw, system, mapping)
		if err != nil {
			s.logger.Warn("Dropping malformed raw record", zap.Error(err))
			continue
		}
		drafts = append(drafts, Split(draft)...)
	}

	seen := make(map[string]struct{})
	stored := make([]*models.Event, 0, len(drafts))
	for _, draft := range drafts {
		fp, err := fingerprint.Compute(draft)
		switch {
		case err == nil:
			draft.Fingerprint = fp
		case errors.Is(err, fingerprint.ErrIndeterminate):
			// Unmatchable by fingerprint; kept, falls through to
			// heuristic-only comparison.
			s.logger.Debug("Event has no content signature",
				zap.String("system", system),
				zap.String("day", draft.Day),
				zap.String("type", draft.EventType))
		default:
			return 0, err
		}

		// The target side can report one real-world entry on several
		// views; identical fingerprints collapse to one event there.
		if system == models.SystemTarget && draft.Fingerprint != "" {
			if _, dup := seen[draft.Fingerprint]; dup {
				continue
			}
			seen[draft.Fingerprint] = struct{}{}
		}
		stored = append(stored, draft)
	}

	if err := s.replaceSystemEvents(ctx, system, stored); err != nil {
		return 0, err
	}
	s.view.Invalidate()
	return len(stored), nil
}

// replaceSystemEvents supersedes a system's stored events in one
// transaction. Ignored flags and synced markers are keyed by fingerprint,
// not id, so they survive the replacement.
func (s *Service) replaceSystemEvents(ctx context.Context, system string, evs []*models.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_system = ?", system).Delete(&models.Event{}).Error; err != nil {
			return fmt.Errorf("failed to supersede %s events: %w", system, err)
		}
		if len(evs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(evs, 200).Error; err != nil {
			return fmt.Errorf("failed to store %s events: %w", system, err)
		}
		return nil
	})
}

// ListEvents returns a system's events, newest effective time first,
// decorated with matched/ignored/duplicate display flags.
func (s *Service) ListEvents(ctx context.Context, system string, limit int) ([]*models.Event, error) {
	pairs, err := s.Pairs(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Event
	for _, p := range pairs {
		var ev *models.Event
		switch system {
		case models.SystemSource:
			ev = p.Source
		case models.SystemTarget:
			ev = p.Target
		}
		if ev == nil {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Pairs returns the current matched-pair view, built from fresh reads and
// cached briefly to absorb dashboard polling.
func (s *Service) Pairs(ctx context.Context) ([]reconcile.MatchedPair, error) {
	view, err := s.view.Get(ctx, s.buildPairs)
	if err != nil {
		return nil, err
	}
	return view.Pairs, nil
}

func (s *Service) buildPairs(ctx context.Context) ([]reconcile.MatchedPair, error) {
	source, err := s.eventsBySystem(ctx, models.SystemSource)
	if err != nil {
		return nil, err
	}
	target, err := s.eventsBySystem(ctx, models.SystemTarget)
	if err != nil {
		return nil, err
	}
	ignored, err := s.IgnoredFingerprints(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range source {
		if ev.Fingerprint != "" {
			_, ev.Ignored = ignored[ev.Fingerprint]
		}
	}
	return reconcile.Reconcile(source, target, s.cfg), nil
}

func (s *Service) eventsBySystem(ctx context.Context, system string) ([]*models.Event, error) {
	var evs []*models.Event
	err := s.db.WithContext(ctx).
		Where("source_system = ?", system).
		Order("start_time_utc DESC, id DESC").
		Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s events: %w", system, err)
	}
	return evs, nil
}

// EventsByIDs loads source events by id, ordered oldest first so sync
// runs process in a stable order.
func (s *Service) EventsByIDs(ctx context.Context, ids []uint) ([]*models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var evs []*models.Event
	err := s.db.WithContext(ctx).
		Where("id IN ? AND source_system = ?", ids, models.SystemSource).
		Order("start_time_utc ASC, id ASC").
		Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load events by id: %w", err)
	}
	return evs, nil
}

// SetIgnored toggles the sticky ignored flag for a source event. The flag
// is stored by fingerprint so it survives rescraping of the same day.
func (s *Service) SetIgnored(ctx context.Context, eventID uint, ignored bool) error {
	var ev models.Event
	if err := s.db.WithContext(ctx).First(&ev, eventID).Error; err != nil {
		return fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	if ev.SourceSystem != models.SystemSource {
		return ErrNotSourceEvent
	}
	if ev.Fingerprint == "" {
		return fmt.Errorf("event %d has no fingerprint to ignore by", eventID)
	}

	var err error
	if ignored {
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.IgnoredFingerprint{Fingerprint: ev.Fingerprint}).Error
	} else {
		err = s.db.WithContext(ctx).
			Where("fingerprint = ?", ev.Fingerprint).
			Delete(&models.IgnoredFingerprint{}).Error
	}
	if err != nil {
		return fmt.Errorf("failed to update ignored flag: %w", err)
	}
	s.view.Invalidate()
	return nil
}

// IgnoredFingerprints returns the set of user-excluded fingerprints.
func (s *Service) IgnoredFingerprints(ctx context.Context) (map[string]struct{}, error) {
	var rows []models.IgnoredFingerprint
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ignored fingerprints: %w", err)
	}
	set := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		set[r.Fingerprint] = struct{}{}
	}
	return set, nil
}

// SyncedFingerprints returns the durable at-most-once markers.
func (s *Service) SyncedFingerprints(ctx context.Context) (map[string]struct{}, error) {
	var rows []models.SyncRecord
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load sync records: %w", err)
	}
	set := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		set[r.Fingerprint] = struct{}{}
	}
	return set, nil
}

// RecordSynced durably marks an event's fingerprint as created in the
// target. Idempotent: re-recording an existing fingerprint is a no-op.
func (s *Service) RecordSynced(ctx context.Context, ev *models.Event) error {
	if ev.Fingerprint == "" {
		return fmt.Errorf("event %d has no fingerprint to record", ev.ID)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SyncRecord{
			Fingerprint: ev.Fingerprint,
			ChildName:   ev.ChildName,
			EventType:   ev.EventType,
			Day:         ev.Day,
			SyncedAt:    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record synced marker: %w", err)
	}
	s.view.Invalidate()
	return nil
}

// TypeMapping returns the operator-editable raw-label mapping, falling
// back to the default table when unset or unreadable.
func (s *Service) TypeMapping(ctx context.Context) TypeMapping {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "name = ?", settingEventMapping).Error
	if err != nil {
		return DefaultTypeMapping()
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(setting.Value), &m); err != nil || len(m) == 0 {
		return DefaultTypeMapping()
	}
	cleaned := make(TypeMapping, len(m))
	for k, v := range m {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			cleaned[k] = v
		}
	}
	if len(cleaned) == 0 {
		return DefaultTypeMapping()
	}
	return cleaned
}

// SetTypeMapping replaces the raw-label mapping table.
func (s *Service) SetTypeMapping(ctx context.Context, mapping map[string]string) error {
	payload, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return s.saveSetting(ctx, settingEventMapping, string(payload))
}

type syncPreferences struct {
	IncludeTypes []string `json:"include_types"`
}

// SyncPreferences returns the active sync-preference filter (allowed
// entry categories), defaulting to all supported categories.
func (s *Service) SyncPreferences(ctx context.Context) []string {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "name = ?", settingSyncPreferences).Error
	if err != nil {
		return DefaultIncludeTypes()
	}
	var prefs syncPreferences
	if err := json.Unmarshal([]byte(setting.Value), &prefs); err != nil || len(prefs.IncludeTypes) == 0 {
		return DefaultIncludeTypes()
	}
	return prefs.IncludeTypes
}

// SetSyncPreferences replaces the filter. Values are lower-cased and
// deduplicated; an empty list restores the default.
func (s *Service) SetSyncPreferences(ctx context.Context, includeTypes []string) ([]string, error) {
	seen := make(map[string]struct{})
	var cleaned []string
	for _, t := range includeTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		cleaned = DefaultIncludeTypes()
	}

	payload, err := json.Marshal(syncPreferences{IncludeTypes: cleaned})
	if err != nil {
		return nil, err
	}
	if err := s.saveSetting(ctx, settingSyncPreferences, string(payload)); err != nil {
		return nil, err
	}
	return cleaned, nil
}

func (s *Service) saveSetting(ctx context.Context, name, value string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.Setting{Name: name, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to save setting %q: %w", name, err)
	}
	s.view.Invalidate()
	return nil
}

// ArchiveCapture archives the raw payload of a scrape run. Best effort:
// failures are logged by the caller, never fail the scrape.
func (s *Service) ArchiveCapture(ctx context.Context, system string, raws []RawRecord) error {
	if s.archive == nil {
		return nil
	}
	return s.archive.Store(ctx, system, raws)
}

// ErrArchiveDisabled is returned by capture operations when no archive
// is configured.
var ErrArchiveDisabled = errors.New("raw-capture archive is not enabled")

// ListCaptures returns the archived captures, newest first. An empty
// system lists captures of both systems.
func (s *Service) ListCaptures(ctx context.Context, system string) ([]CaptureInfo, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx, system)
}

// ReplayCapture runs one archived capture back through the current
// normalisation pipeline, replacing the captured system's stored events
// as a live scrape would.
func (s *Service) ReplayCapture(ctx context.Context, key string) (int, error) {
	if s.archive == nil {
		return 0, ErrArchiveDisabled
	}
	system, raws, err := s.archive.Load(ctx, key)
	if err != nil {
		return 0, err
	}
	if system != models.SystemSource && system != models.SystemTarget {
		return 0, fmt.Errorf("capture %s names unknown system %q", key, system)
	}
	stored, err := s.IngestRawRecords(ctx, system, raws)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Capture replayed",
		zap.String("key", key),
		zap.String("system", system),
		zap.Int("stored", stored))
	return stored, nil
}

// DeleteCapture removes one archived capture.
func (s *Service) DeleteCapture(ctx context.Context, key string) error {
	if s.archive == nil {
		return ErrArchiveDisabled
	}
	return s.archive.Remove(ctx, key)
}

// InvalidateView drops the cached matched-pair view.
func (s *Service) InvalidateView() {
	s.view.Invalidate()
}
