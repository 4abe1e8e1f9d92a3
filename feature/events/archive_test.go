package events

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"nursery-sync/core/storage/mocks"
	"nursery-sync/feature/events/models"
	"nursery-sync/feature/events/reconcile"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const testBucket = "raw-captures"

func captureJSON(system, detail string) string {
	return `{
		"system": "` + system + `",
		"captured_at": "2024-03-05T12:00:00Z",
		"records": [
			{
				"record_id": "rec-1",
				"child_name": "Ada",
				"label": "Meals",
				"day_iso": "2024-03-05",
				"time_text": "11:30",
				"detail_lines": ["` + detail + `"]
			}
		]
	}`
}

func objectChannel(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestArchive_Store(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.Client)
	store.On("BucketExists", mock.Anything, testBucket).Return(false, nil)
	store.On("MakeBucket", mock.Anything, testBucket, mock.Anything).Return(nil)
	store.On("PutObject", mock.Anything, testBucket,
		mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "captures/source/") }),
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	archive := NewArchive(store, testBucket)
	err := archive.Store(ctx, models.SystemSource, []RawRecord{mealRecord("rec-1", "Ada", "Pasta bake")})
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestArchive_List(t *testing.T) {
	ctx := context.Background()

	t.Run("NewestFirst", func(t *testing.T) {
		store := new(mocks.Client)
		store.On("ListObjects", mock.Anything, testBucket, mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "captures/source/"
		})).Return(objectChannel(
			minio.ObjectInfo{Key: "captures/source/20240304T080000Z.json", Size: 10},
			minio.ObjectInfo{Key: "captures/source/20240305T080000Z.json", Size: 20},
		))

		archive := NewArchive(store, testBucket)
		infos, err := archive.List(ctx, models.SystemSource)
		assert.NoError(t, err)
		if assert.Len(t, infos, 2) {
			assert.Equal(t, "captures/source/20240305T080000Z.json", infos[0].Key)
			assert.Equal(t, int64(20), infos[0].Size)
		}
	})

	t.Run("AllSystems", func(t *testing.T) {
		store := new(mocks.Client)
		store.On("ListObjects", mock.Anything, testBucket, mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "captures/"
		})).Return(objectChannel())

		archive := NewArchive(store, testBucket)
		infos, err := archive.List(ctx, "")
		assert.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("ListingError", func(t *testing.T) {
		store := new(mocks.Client)
		store.On("ListObjects", mock.Anything, testBucket, mock.Anything).Return(objectChannel(
			minio.ObjectInfo{Err: assert.AnError},
		))

		archive := NewArchive(store, testBucket)
		_, err := archive.List(ctx, models.SystemSource)
		assert.Error(t, err)
	})
}

func TestArchive_Load(t *testing.T) {
	ctx := context.Background()
	key := "captures/source/20240305T080000Z.json"
	store := new(mocks.Client)
	store.On("GetObject", mock.Anything, testBucket, key, mock.Anything).
		Return(io.NopCloser(strings.NewReader(captureJSON("source", "Pasta bake"))), nil)

	archive := NewArchive(store, testBucket)
	system, raws, err := archive.Load(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, models.SystemSource, system)
	if assert.Len(t, raws, 1) {
		assert.Equal(t, "rec-1", raws[0].RecordID)
		assert.Equal(t, []string{"Pasta bake"}, raws[0].DetailLines)
	}
}

func TestArchive_Remove(t *testing.T) {
	ctx := context.Background()
	key := "captures/source/20240305T080000Z.json"
	store := new(mocks.Client)
	store.On("RemoveObject", mock.Anything, testBucket, key, mock.Anything).Return(nil)

	archive := NewArchive(store, testBucket)
	assert.NoError(t, archive.Remove(ctx, key))
	store.AssertExpectations(t)
}

func TestService_ReplayCapture(t *testing.T) {
	ctx := context.Background()

	setupWithArchive := func(t *testing.T, store *mocks.Client) *Service {
		return NewService(setupTestDB(t), zap.NewNop(), NewArchive(store, testBucket), reconcile.Config{
			HeuristicPrecisionSeconds: 60,
			ViewTTLSeconds:            0,
		})
	}

	t.Run("ReplacesStoredEvents", func(t *testing.T) {
		key := "captures/source/20240305T080000Z.json"
		store := new(mocks.Client)
		store.On("GetObject", mock.Anything, testBucket, key, mock.Anything).
			Return(io.NopCloser(strings.NewReader(captureJSON("source", "Pasta bake"))), nil)

		svc := setupWithArchive(t, store)
		_, err := svc.IngestRawRecords(ctx, models.SystemSource, []RawRecord{
			mealRecord("rec-0", "Ada", "Stale entry"),
		})
		assert.NoError(t, err)

		stored, err := svc.ReplayCapture(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, 1, stored)

		// Replay supersedes the live scrape, exactly like a rescrape.
		var evs []models.Event
		assert.NoError(t, svc.db.Find(&evs).Error)
		if assert.Len(t, evs, 1) {
			assert.Equal(t, []string{"Pasta bake"}, evs[0].DetailLines)
			assert.Equal(t, time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC), evs[0].StartTimeUTC)
		}
	})

	t.Run("UnknownSystemRejected", func(t *testing.T) {
		key := "captures/elsewhere/20240305T080000Z.json"
		store := new(mocks.Client)
		store.On("GetObject", mock.Anything, testBucket, key, mock.Anything).
			Return(io.NopCloser(strings.NewReader(captureJSON("elsewhere", "Pasta bake"))), nil)

		svc := setupWithArchive(t, store)
		_, err := svc.ReplayCapture(ctx, key)
		assert.Error(t, err)
	})

	t.Run("ArchiveDisabled", func(t *testing.T) {
		svc := setupService(t)
		_, err := svc.ReplayCapture(ctx, "captures/source/whatever.json")
		assert.ErrorIs(t, err, ErrArchiveDisabled)

		_, err = svc.ListCaptures(ctx, "")
		assert.ErrorIs(t, err, ErrArchiveDisabled)

		assert.ErrorIs(t, svc.DeleteCapture(ctx, "captures/source/whatever.json"), ErrArchiveDisabled)
	})
}
