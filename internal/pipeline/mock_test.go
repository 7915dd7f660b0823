package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/profile-harvest/internal/model"
	"github.com/sells-group/profile-harvest/internal/store"
)

// --- Invoker stub ---

type invokerFunc func(ctx context.Context, prompt string) (string, error)

func (f invokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// --- Fetcher stub ---

type fetcherFunc func(ctx context.Context, url string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, kind model.RunKind, modelName, baseURL string) (*model.Run, error) {
	args := m.Called(ctx, kind, modelName, baseURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	args := m.Called(ctx, runID, status, errMsg)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) RecordPage(ctx context.Context, outcome *model.PageOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func (m *mockStore) ListPageOutcomes(ctx context.Context, runID string) ([]model.PageOutcome, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PageOutcome), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
