package sync

import (
	"context"
	"fmt"
	"strings"

	"nursery-sync/core/metrics"
	"nursery-sync/feature/events"
	"nursery-sync/feature/events/models"
	"nursery-sync/feature/sync/client"

	"go.uber.org/zap"
)

// Run names used for the per-service run guard and progress rows. Scrape
// runs take the name of the scraped service; sync runs hold both the
// sync slot and the target scrape slot, since they share the target's
// automation session.
const (
	RunSourceScrape = models.SystemSource
	RunTargetScrape = models.SystemTarget
	RunSync         = "sync"
)

// Result reports the outcome of one sync run.
type Result struct {
	SyncedEventIDs []uint `json:"synced_event_ids"`
	FailedEventIDs []uint `json:"failed_event_ids"`
}

// Service drives scrape and sync runs against the collaborator clients.
type Service struct {
	events  *events.Service
	logger  *zap.Logger
	tracker *Tracker
	runner  *Runner
	source  client.ScrapeClient
	target  client.TargetClient
}

// NewService creates the sync service.
func NewService(eventSvc *events.Service, logger *zap.Logger, tracker *Tracker, runner *Runner, source client.ScrapeClient, target client.TargetClient) *Service {
	return &Service{
		events:  eventSvc,
		logger:  logger,
		tracker: tracker,
		runner:  runner,
		source:  source,
		target:  target,
	}
}

// MissingEventIDs resolves the current missing set: source events with no
// target counterpart that are not ignored, not already durably synced,
// and whose category passes the sync preferences. Recomputed from the
// live pair view on every call; ordered oldest first.
func (s *Service) MissingEventIDs(ctx context.Context) ([]uint, error) {
	pairs, err := s.events.Pairs(ctx)
	if err != nil {
		return nil, err
	}
	synced, err := s.events.SyncedFingerprints(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{})
	for _, t := range s.events.SyncPreferences(ctx) {
		allowed[strings.ToLower(t)] = struct{}{}
	}

	var missing []*models.Event
	for _, p := range pairs {
		if !p.IsSourceOnly() {
			continue
		}
		ev := p.Source
		if ev.Ignored {
			continue
		}
		if ev.Fingerprint == "" {
			// No durable identity, so no at-most-once guarantee. Left for
			// manual handling.
			continue
		}
		if _, done := synced[ev.Fingerprint]; done {
			continue
		}
		if _, ok := allowed[events.SyncTypeKey(ev.EventType)]; !ok {
			continue
		}
		missing = append(missing, ev)
	}

	// Pairs are newest first; sync runs want oldest first.
	ids := make([]uint, 0, len(missing))
	for i := len(missing) - 1; i >= 0; i-- {
		ids = append(ids, missing[i].ID)
	}
	return ids, nil
}

// Sync creates target entries for the given source events, one at a
// time. Items already marked synced are skipped without a collaborator
// call and still count as synced. A failed item is recorded and the run
// moves on; it stays in the missing set for the next run.
func (s *Service) Sync(ctx context.Context, ids []uint) (Result, error) {
	release, err := s.runner.Acquire(RunSync)
	if err != nil {
		return Result{}, err
	}
	defer release()

	// The run writes through the target's automation session, so it also
	// holds the target scrape slot for its whole duration.
	releaseTarget, err := s.runner.Acquire(RunTargetScrape)
	if err != nil {
		return Result{}, err
	}
	defer releaseTarget()

	if _, err := s.tracker.Start(RunSync, "starting sync run"); err != nil {
		return Result{}, err
	}

	evs, err := s.events.EventsByIDs(ctx, ids)
	if err != nil {
		s.failRun(RunSync, err)
		return Result{}, err
	}
	if err := s.tracker.SetTotal(RunSync, len(evs)); err != nil {
		s.logger.Warn("Failed to record run total", zap.Error(err))
	}

	synced, err := s.events.SyncedFingerprints(ctx)
	if err != nil {
		s.failRun(RunSync, err)
		return Result{}, err
	}

	var result Result
	for _, ev := range evs {
		if err := s.syncOne(ctx, ev, synced); err != nil {
			s.logger.Error("Failed to sync event",
				zap.Uint("event_id", ev.ID),
				zap.String("child", ev.ChildName),
				zap.String("type", ev.EventType),
				zap.Error(err))
			metrics.SyncItemFailures.Inc()
			result.FailedEventIDs = append(result.FailedEventIDs, ev.ID)
		} else {
			result.SyncedEventIDs = append(result.SyncedEventIDs, ev.ID)
		}
		if err := s.tracker.Increment(RunSync); err != nil {
			s.logger.Warn("Failed to advance run progress", zap.Error(err))
		}
	}

	summary := fmt.Sprintf("synced %d, failed %d", len(result.SyncedEventIDs), len(result.FailedEventIDs))
	if err := s.tracker.Finish(RunSync, summary); err != nil {
		s.logger.Warn("Failed to finish run progress", zap.Error(err))
	}
	s.events.InvalidateView()
	return result, nil
}

func (s *Service) syncOne(ctx context.Context, ev *models.Event, synced map[string]struct{}) error {
	if ev.Fingerprint == "" {
		return fmt.Errorf("event %d has no fingerprint", ev.ID)
	}
	if _, done := synced[ev.Fingerprint]; done {
		// Already created on a previous run; never create twice.
		return nil
	}
	if err := s.target.CreateEntry(ctx, BuildEntry(ev)); err != nil {
		return err
	}
	metrics.EntriesSynced.Inc()
	if err := s.events.RecordSynced(ctx, ev); err != nil {
		// The entry exists in the target but the marker write failed; the
		// next target scrape will reconcile it out of the missing set.
		return fmt.Errorf("entry created but marker not recorded: %w", err)
	}
	synced[ev.Fingerprint] = struct{}{}
	return nil
}

// SyncMissing resolves the missing set and syncs all of it.
func (s *Service) SyncMissing(ctx context.Context) (Result, error) {
	ids, err := s.MissingEventIDs(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.Sync(ctx, ids)
}

// ScrapeAndStore runs a full scrape for one service and replaces its
// stored events. Holds the service's run slot for the whole run.
func (s *Service) ScrapeAndStore(ctx context.Context, service string, daysBack int) (int, error) {
	scraper, err := s.scraperFor(service)
	if err != nil {
		return 0, err
	}

	release, err := s.runner.Acquire(service)
	if err != nil {
		return 0, err
	}
	defer release()

	if _, err := s.tracker.Start(service, "scraping"); err != nil {
		return 0, err
	}

	raws, err := scraper.Scrape(ctx, client.ScrapeRequest{DaysBack: daysBack})
	if err != nil {
		metrics.ScrapeFailures.WithLabelValues(service).Inc()
		s.failRun(service, err)
		return 0, fmt.Errorf("scrape failed for %s: %w", service, err)
	}

	if err := s.events.ArchiveCapture(ctx, service, raws); err != nil {
		s.logger.Warn("Failed to archive raw capture",
			zap.String("service", service),
			zap.Error(err))
	}

	stored, err := s.events.IngestRawRecords(ctx, service, raws)
	if err != nil {
		metrics.ScrapeFailures.WithLabelValues(service).Inc()
		s.failRun(service, err)
		return 0, err
	}
	metrics.EventsScraped.WithLabelValues(service).Add(float64(stored))

	summary := fmt.Sprintf("stored %d events from %d records", stored, len(raws))
	if err := s.tracker.Finish(service, summary); err != nil {
		s.logger.Warn("Failed to finish run progress", zap.Error(err))
	}
	s.logger.Info("Scrape run completed",
		zap.String("service", service),
		zap.Int("records", len(raws)),
		zap.Int("stored", stored))
	return stored, nil
}

// Progress returns the latest run progress for all services.
func (s *Service) Progress() ([]models.RunProgress, error) {
	return s.tracker.Snapshot()
}

func (s *Service) scraperFor(service string) (client.ScrapeClient, error) {
	switch service {
	case models.SystemSource:
		return s.source, nil
	case models.SystemTarget:
		if sc, ok := s.target.(client.ScrapeClient); ok {
			return sc, nil
		}
		return nil, fmt.Errorf("target client cannot scrape")
	default:
		return nil, fmt.Errorf("unknown service %q", service)
	}
}

func (s *Service) failRun(service string, err error) {
	if terr := s.tracker.Fail(service, err.Error()); terr != nil {
		s.logger.Warn("Failed to record run failure", zap.Error(terr))
	}
}
