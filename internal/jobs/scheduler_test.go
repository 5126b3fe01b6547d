package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockCleaner struct{ mock.Mock }

func (m *mockCleaner) Cleanup(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) RefreshCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestStartRegistersJobs(t *testing.T) {
	s := NewScheduler(&mockCleaner{}, &mockRefresher{}, nil)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	entries := s.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.Next.After(time.Now().Add(-time.Second)))
	}
}

func TestStartSkipsMissingJobs(t *testing.T) {
	s := NewScheduler(nil, &mockRefresher{}, nil)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Len(t, s.Entries(), 1)
}

func TestRunCleanup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cleaner := &mockCleaner{}
	cleaner.On("Cleanup", mock.Anything).Return(int64(3), nil).Once()
	cleaner.On("Cleanup", mock.Anything).Return(int64(0), errors.New("locked")).Once()

	s := NewScheduler(cleaner, nil, zap.New(core))
	s.RunCleanup()
	s.RunCleanup()

	cleaner.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("visitor cleanup completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("visitor cleanup failed").Len())
}

func TestRunCacheRefresh(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	refresher := &mockRefresher{}
	refresher.On("RefreshCache", mock.Anything).Return(errors.New("backend down"))

	s := NewScheduler(nil, refresher, zap.New(core))
	s.RunCacheRefresh()

	refresher.AssertNumberOfCalls(t, "RefreshCache", 1)
	assert.Equal(t, 1, logs.FilterMessage("cache refresh failed").Len())
}
