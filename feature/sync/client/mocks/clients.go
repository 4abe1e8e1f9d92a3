package mocks

import (
	"context"

	"nursery-sync/feature/events"
	"nursery-sync/feature/sync/client"

	"github.com/stretchr/testify/mock"
)

// ScrapeClient is a mock implementation of client.ScrapeClient.
type ScrapeClient struct {
	mock.Mock
}

func (m *ScrapeClient) VerifyLogin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *ScrapeClient) Scrape(ctx context.Context, req client.ScrapeRequest) ([]events.RawRecord, error) {
	args := m.Called(ctx, req)
	if recs, ok := args.Get(0).([]events.RawRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

// TargetClient is a mock implementation of client.TargetClient.
type TargetClient struct {
	mock.Mock
}

func (m *TargetClient) VerifyLogin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *TargetClient) CreateEntry(ctx context.Context, entry client.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
