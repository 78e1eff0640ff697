package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/mock"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, req model.ProductRequest) (*model.Run, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	args := m.Called(ctx, runID, result)
	return args.Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, message string) error {
	args := m.Called(ctx, runID, message)
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

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Stage fakes ---

// fakeDiscoverer returns canned candidates and records the queries it saw.
type fakeDiscoverer struct {
	candidates []model.SearchCandidate
	queries    []string
}

func (f *fakeDiscoverer) Discover(_ context.Context, queries []string) []model.SearchCandidate {
	f.queries = queries
	return f.candidates
}

// fakeSiteExtractor serves corpora keyed by candidate URL. The call counter
// is guarded because verify runs extractions concurrently.
type fakeSiteExtractor struct {
	mu      sync.Mutex
	corpora map[string]*model.SiteCorpus
	errs    map[string]error
	calls   int
}

func (f *fakeSiteExtractor) Extract(_ context.Context, candidate model.SearchCandidate) (*model.SiteCorpus, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err, ok := f.errs[candidate.URL]; ok {
		return nil, err
	}
	if corpus, ok := f.corpora[candidate.URL]; ok {
		return corpus, nil
	}
	return nil, eris.Errorf("no corpus for %s", candidate.URL)
}

func (f *fakeSiteExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- Ensure interface compliance ---
var (
	_ store.Store   = (*mockStore)(nil)
	_ Discoverer    = (*fakeDiscoverer)(nil)
	_ SiteExtractor = (*fakeSiteExtractor)(nil)
)
