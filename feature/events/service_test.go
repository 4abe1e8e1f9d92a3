package events

import (
	"context"
	"testing"

	"nursery-sync/feature/events/models"
	"nursery-sync/feature/events/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func setupService(t *testing.T) *Service {
	// Zero view TTL so every Pairs call reads fresh state.
	return NewService(setupTestDB(t), zap.NewNop(), nil, reconcile.Config{
		HeuristicPrecisionSeconds: 60,
		ViewTTLSeconds:            0,
	})
}

func mealRecord(id, child, detail string) RawRecord {
	return RawRecord{
		RecordID:    id,
		ChildName:   child,
		Label:       "Meals",
		DayISO:      "2024-03-05",
		TimeText:    "11:30",
		DetailLines: []string{detail},
	}
}

func TestService_IngestRawRecords(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	t.Run("SplitsBundledRecords", func(t *testing.T) {
		raw := RawRecord{
			RecordID:  "rec-1",
			ChildName: "Ada",
			Label:     "Meals",
			DayISO:    "2024-03-05",
			DetailLines: []string{
				"08:00 Bottle 150ml",
				"11:00 Bottle 120ml",
			},
		}

		stored, err := svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{raw})
		assert.NoError(t, err)
		assert.Equal(t, 2, stored)

		var evs []models.Event
		assert.NoError(t, svc.db.Order("start_time_utc asc").Find(&evs).Error)
		assert.Len(t, evs, 2)
		assert.Equal(t, "rec-1", *evs[0].ParentSourceEventID)
		assert.Equal(t, 0, *evs[0].SplitIndex)
		assert.Equal(t, 1, *evs[1].SplitIndex)
	})

	t.Run("MalformedRecordsDropped", func(t *testing.T) {
		records := []RawRecord{
			mealRecord("rec-2", "Ada", "Pasta bake"),
			{RecordID: "rec-3", Label: "Meals"}, // no child
		}
		stored, err := svc.IngestRawRecords(ctx, models.SystemSource, records)
		assert.NoError(t, err)
		assert.Equal(t, 1, stored)
	})
}

func TestService_RescrapeSupersedes(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{
		mealRecord("rec-1", "Ada", "Pasta bake"),
		mealRecord("rec-2", "Ada", "Fruit salad"),
	})
	assert.NoError(t, err)

	stored, err := svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{
		mealRecord("rec-1", "Ada", "Pasta bake"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, stored)

	var count int64
	svc.db.Model(&models.Event{}).Where("source_system = ?", models.SystemSource).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestService_TargetDeduplicates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	// The target can expose the same real-world entry on several views.
	stored, err := svc.IngestRawRecords(ctx, models.SystemTarget, []RawRecord{
		mealRecord("tgt-1", "Ada", "Pasta bake"),
		mealRecord("tgt-2", "Ada", "Pasta bake"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, stored)
}

func TestService_IgnorePersistsAcrossRescrape(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{
		mealRecord("rec-1", "Ada", "Pasta bake"),
	})
	assert.NoError(t, err)

	var ev models.Event
	assert.NoError(t, svc.db.First(&ev).Error)
	assert.NoError(t, svc.SetIgnored(ctx, ev.ID, true))

	// Rescrape replaces the row; the flag is keyed by fingerprint and
	// must survive.
	_, err = svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{
		mealRecord("rec-1", "Ada", "Pasta bake"),
	})
	assert.NoError(t, err)

	pairs, err := svc.Pairs(ctx)
	assert.NoError(t, err)
	assert.Len(t, pairs, 1)
	assert.True(t, pairs[0].Source.Ignored)

	// Toggling off removes the flag.
	assert.NoError(t, svc.SetIgnored(ctx, pairs[0].Source.ID, false))
	pairs, err = svc.Pairs(ctx)
	assert.NoError(t, err)
	assert.False(t, pairs[0].Source.Ignored)
}

func TestService_SetIgnoredRejectsTargetEvents(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.IngestRawRecords(ctx, models.SystemTarget, []RawRecord{
		mealRecord("tgt-1", "Ada", "Pasta bake"),
	})
	assert.NoError(t, err)

	var ev models.Event
	assert.NoError(t, svc.db.First(&ev).Error)
	assert.ErrorIs(t, svc.SetIgnored(ctx, ev.ID, true), ErrNotSourceEvent)
}

func TestService_RecordSyncedIdempotent(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	ev := &models.Event{Fingerprint: "abc123", ChildName: "Ada", EventType: TypeMeal, Day: "2024-03-05"}
	assert.NoError(t, svc.RecordSynced(ctx, ev))
	assert.NoError(t, svc.RecordSynced(ctx, ev))

	synced, err := svc.SyncedFingerprints(ctx)
	assert.NoError(t, err)
	assert.Len(t, synced, 1)
	assert.Contains(t, synced, "abc123")
}

func TestService_SyncPreferences(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	t.Run("DefaultWhenUnset", func(t *testing.T) {
		assert.Equal(t, DefaultIncludeTypes(), svc.SyncPreferences(ctx))
	})

	t.Run("CleansAndPersists", func(t *testing.T) {
		got, err := svc.SetSyncPreferences(ctx, []string{" Solid ", "nappy", "SOLID", ""})
		assert.NoError(t, err)
		assert.Equal(t, []string{"solid", "nappy"}, got)
		assert.Equal(t, []string{"solid", "nappy"}, svc.SyncPreferences(ctx))
	})

	t.Run("EmptyRestoresDefault", func(t *testing.T) {
		got, err := svc.SetSyncPreferences(ctx, nil)
		assert.NoError(t, err)
		assert.Equal(t, DefaultIncludeTypes(), got)
	})
}

func TestService_TypeMappingSetting(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	assert.Equal(t, DefaultTypeMapping(), svc.TypeMapping(ctx))

	assert.NoError(t, svc.SetTypeMapping(ctx, map[string]string{"Bottle Feed": "bottle"}))
	mapping := svc.TypeMapping(ctx)
	assert.Equal(t, "bottle", mapping["bottle feed"])

	// An ingest after the change uses the stored table.
	stored, err := svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{{
		RecordID:    "rec-1",
		ChildName:   "Ada",
		Label:       "Bottle Feed",
		DayISO:      "2024-03-05",
		TimeText:    "08:00",
		DetailLines: []string{"150ml"},
	}})
	assert.NoError(t, err)
	assert.Equal(t, 1, stored)

	var ev models.Event
	assert.NoError(t, svc.db.First(&ev).Error)
	assert.Equal(t, "bottle", ev.EventType)
}
