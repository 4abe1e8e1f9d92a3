package events

import (
	"context"
	"testing"
	"time"

	"nursery-sync/feature/events/models"
	"nursery-sync/feature/events/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for asserting the exact SQL the
// service issues against the mysql driver.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestService_EventsByIDsQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewService(db, zap.NewNop(), nil, reconcile.Config{})

	start := time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "source_system", "fingerprint", "child_name", "event_type", "day", "start_time_utc", "detail_lines"}).
		AddRow(1, models.SystemSource, "fp-1", "Ada", "meal", "2024-03-05", start, `["Pasta bake"]`)

	// Source-side only, oldest first for stable sync order.
	mock.ExpectQuery("SELECT \\* FROM `events` WHERE id IN \\(\\?,\\?\\) AND source_system = \\? ORDER BY start_time_utc ASC, id ASC").
		WithArgs(1, 2, models.SystemSource).
		WillReturnRows(rows)

	evs, err := svc.EventsByIDs(context.Background(), []uint{1, 2})
	assert.NoError(t, err)
	assert.Len(t, evs, 1)
	assert.Equal(t, "Ada", evs[0].ChildName)
	assert.Equal(t, []string{"Pasta bake"}, evs[0].DetailLines)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_EventsByIDs_Empty(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := NewService(db, zap.NewNop(), nil, reconcile.Config{})

	evs, err := svc.EventsByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, evs)
}
