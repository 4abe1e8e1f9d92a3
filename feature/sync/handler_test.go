package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"nursery-sync/feature/events"
	"nursery-sync/feature/events/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *fixture) {
	app := fiber.New()
	f := setupFixture(t)
	NewHandler(f.sync, zap.NewNop()).RegisterRoutes(app)
	return app, f
}

func TestHandleScrape(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		app, f := setupTestApp(t)
		f.source.On("Scrape", mock.Anything, mock.Anything).Return([]events.RawRecord{
			mealRecord("rec-1", "08:00", "Breakfast"),
		}, nil)

		resp, err := app.Test(httptest.NewRequest("POST", "/scrape/source", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.EqualValues(t, 1, body["stored"])
	})

	t.Run("UnknownService", func(t *testing.T) {
		app, _ := setupTestApp(t)
		resp, err := app.Test(httptest.NewRequest("POST", "/scrape/elsewhere", nil))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("RunInFlight", func(t *testing.T) {
		app, f := setupTestApp(t)
		release, err := f.sync.runner.Acquire(models.SystemSource)
		require.NoError(t, err)
		defer release()

		resp, err := app.Test(httptest.NewRequest("POST", "/scrape/source", nil))
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
	})
}

func TestHandleMissing(t *testing.T) {
	app, f := setupTestApp(t)
	seedSource(t, f, mealRecord("rec-1", "12:00", "Lunch"))

	resp, err := app.Test(httptest.NewRequest("GET", "/events/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string][]uint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body["event_ids"], 1)
}

func TestHandleSyncEntries(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		app, f := setupTestApp(t)
		seedSource(t, f, mealRecord("rec-1", "12:00", "Lunch"))
		f.target.On("CreateEntry", mock.Anything, mock.Anything).Return(nil)

		var ev models.Event
		require.NoError(t, f.db.First(&ev).Error)

		payload := bytes.NewBufferString(fmt.Sprintf(`{"event_ids": [%d]}`, ev.ID))
		req := httptest.NewRequest("POST", "/sync/entries", payload)
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Len(t, result.SyncedEventIDs, 1)
	})

	t.Run("EmptyPayloadRejected", func(t *testing.T) {
		app, _ := setupTestApp(t)
		payload := bytes.NewBufferString(`{"event_ids": []}`)
		req := httptest.NewRequest("POST", "/sync/entries", payload)
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleSyncMissing(t *testing.T) {
	app, f := setupTestApp(t)
	seedSource(t, f,
		mealRecord("rec-1", "08:00", "Breakfast"),
		mealRecord("rec-2", "12:00", "Lunch"),
	)
	f.target.On("CreateEntry", mock.Anything, mock.Anything).Return(nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Len(t, result.SyncedEventIDs, 2)
}

func TestHandleProgress(t *testing.T) {
	app, f := setupTestApp(t)
	_, err := f.sync.tracker.Start(RunSync, "syncing")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/progress", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var rows []models.RunProgress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, models.RunRunning, rows[0].Status)
}
