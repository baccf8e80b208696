// Package services: services/mock_queue_service.go
package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prayreps/models"
)

// Ensure MockQueueService implements QueueServiceInterface
var _ QueueServiceInterface = (*MockQueueService)(nil)

// MockQueueService is a mock implementation for controller tests.
type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) NextInQueue(ctx context.Context, country string) (*models.Representative, error) {
	args := m.Called(ctx, country)
	rep, _ := args.Get(0).(*models.Representative)
	return rep, args.Error(1)
}

func (m *MockQueueService) NextOverall(ctx context.Context) (*models.Representative, error) {
	args := m.Called(ctx)
	rep, _ := args.Get(0).(*models.Representative)
	return rep, args.Error(1)
}

func (m *MockQueueService) Queued(ctx context.Context) ([]models.Representative, error) {
	args := m.Called(ctx)
	reps, _ := args.Get(0).([]models.Representative)
	return reps, args.Error(1)
}

func (m *MockQueueService) Prayed(ctx context.Context, country string) ([]models.Representative, error) {
	args := m.Called(ctx, country)
	reps, _ := args.Get(0).([]models.Representative)
	return reps, args.Error(1)
}

func (m *MockQueueService) MarkPrayed(ctx context.Context, id int64) (*models.Representative, error) {
	args := m.Called(ctx, id)
	rep, _ := args.Get(0).(*models.Representative)
	return rep, args.Error(1)
}

func (m *MockQueueService) PutBack(ctx context.Context, id int64) (*models.Representative, error) {
	args := m.Called(ctx, id)
	rep, _ := args.Get(0).(*models.Representative)
	return rep, args.Error(1)
}

func (m *MockQueueService) PurgeAndReload(ctx context.Context, countries []string) (int, error) {
	args := m.Called(ctx, countries)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueService) PartyStats(ctx context.Context, country string) ([]models.PartyCount, error) {
	args := m.Called(ctx, country)
	stats, _ := args.Get(0).([]models.PartyCount)
	return stats, args.Error(1)
}

func (m *MockQueueService) Timeline(ctx context.Context, country string) (*models.Timeline, error) {
	args := m.Called(ctx, country)
	timeline, _ := args.Get(0).(*models.Timeline)
	return timeline, args.Error(1)
}

func (m *MockQueueService) OverallPrayedCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueService) QueueSize(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueService) Remaining(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
