package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
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

// --- Runner fake ---

// fakeRunner returns a canned run and records what it was asked to verify.
type fakeRunner struct {
	run         *model.Run
	err         error
	called      bool
	gotReq      model.ProductRequest
	hadDeadline bool
}

func (f *fakeRunner) Run(ctx context.Context, req model.ProductRequest) (*model.Run, error) {
	f.called = true
	f.gotReq = req
	_, f.hadDeadline = ctx.Deadline()
	return f.run, f.err
}

var (
	_ store.Store = (*mockStore)(nil)
	_ Runner      = (*fakeRunner)(nil)
)

// --- Helpers ---

func newTestServer(st store.Store, runner Runner) http.Handler {
	return New(config.ServerConfig{RunTimeoutSecs: 60}, st, runner).Handler()
}

func completedRun() *model.Run {
	result := &model.RunResult{
		CandidatesFound:    2,
		CandidatesVerified: 1,
		Suppliers: []model.SupplierRecord{
			{
				Candidate: model.SearchCandidate{
					URL:    "https://www.hualongchem.com",
					Title:  "Hualong Chemical Co., Ltd.",
					Domain: "hualongchem.com",
				},
				Evidence: model.Evidence{
					KeywordsFound: []string{"manufacturer:factory"},
				},
				Verdict: model.Verdict{
					Classification: model.LabelManufacturer,
					Confidence:     85,
					Reasoning:      "production facilities described on site",
					Method:         model.MethodLLM,
				},
			},
		},
	}
	result.Tally()
	return &model.Run{
		ID:        "run-1",
		Request:   model.ProductRequest{Name: "citric acid", CASNumber: "77-92-9"},
		Status:    model.RunStatusComplete,
		Result:    result,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

// --- Tests ---

func TestHealth(t *testing.T) {
	h := newTestServer(&mockStore{}, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateVerification(t *testing.T) {
	runner := &fakeRunner{run: completedRun()}
	h := newTestServer(&mockStore{}, runner)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/verifications",
		`{"name":"  citric acid  ","cas_number":"77-92-9","volume":"20 MT"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var run model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Suppliers, 1)
	assert.Equal(t, model.LabelManufacturer, run.Result.Suppliers[0].Verdict.Classification)

	assert.True(t, runner.called)
	assert.Equal(t, "citric acid", runner.gotReq.Name, "name should be trimmed before the run starts")
	assert.Equal(t, "77-92-9", runner.gotReq.CASNumber)
	assert.Equal(t, "20 MT", runner.gotReq.Volume)
	assert.True(t, runner.hadDeadline, "run context should carry the configured time box")
}

func TestCreateVerification_InvalidJSON(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(&mockStore{}, runner)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/verifications", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decodeError(t, rec))
	assert.False(t, runner.called)
}

func TestCreateVerification_MissingName(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(&mockStore{}, runner)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/verifications", `{"name":"   ","cas_number":"77-92-9"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product name is required", decodeError(t, rec))
	assert.False(t, runner.called)
}

func TestCreateVerification_RunNeverStarted(t *testing.T) {
	runner := &fakeRunner{err: eris.New("store: disk full")}
	h := newTestServer(&mockStore{}, runner)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/verifications", `{"name":"citric acid"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "verification could not start", decodeError(t, rec))
}

func TestCreateVerification_FailedRunReturnsRecord(t *testing.T) {
	failed := completedRun()
	failed.Status = model.RunStatusFailed
	failed.Result = nil
	failed.Error = "search provider unreachable"
	runner := &fakeRunner{run: failed, err: eris.New("pipeline: search phase")}
	h := newTestServer(&mockStore{}, runner)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/verifications", `{"name":"citric acid"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var run model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "search provider unreachable", run.Error)
}

func TestGetRun(t *testing.T) {
	st := &mockStore{}
	st.On("GetRun", mock.Anything, "run-1").Return(completedRun(), nil)
	h := newTestServer(st, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs/run-1", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var run model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "citric acid", run.Request.Name)
	st.AssertExpectations(t)
}

func TestGetRun_NotFound(t *testing.T) {
	st := &mockStore{}
	st.On("GetRun", mock.Anything, "missing").
		Return(nil, eris.Wrapf(store.ErrNotFound, "run %s", "missing"))
	h := newTestServer(st, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "run not found", decodeError(t, rec))
}

func TestGetRun_StoreError(t *testing.T) {
	st := &mockStore{}
	st.On("GetRun", mock.Anything, "run-1").Return(nil, eris.New("connection reset"))
	h := newTestServer(st, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs/run-1", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "could not load run", decodeError(t, rec))
}

func TestListRuns(t *testing.T) {
	st := &mockStore{}
	st.On("ListRuns", mock.Anything, store.RunFilter{
		Status: model.RunStatusComplete,
		Limit:  2,
		Offset: 4,
	}).Return([]model.Run{*completedRun(), *completedRun()}, nil)
	h := newTestServer(st, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs?status=complete&limit=2&offset=4", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int         `json:"count"`
		Runs  []model.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Runs, 2)
	st.AssertExpectations(t)
}

func TestListRuns_NoFilter(t *testing.T) {
	st := &mockStore{}
	st.On("ListRuns", mock.Anything, store.RunFilter{}).Return([]model.Run{}, nil)
	h := newTestServer(st, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestListRuns_BadLimit(t *testing.T) {
	h := newTestServer(&mockStore{}, &fakeRunner{})

	for _, limit := range []string{"zero", "0", "-3"} {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/runs?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestListRuns_BadOffset(t *testing.T) {
	h := newTestServer(&mockStore{}, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs?offset=-1", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "offset must be a non-negative integer", decodeError(t, rec))
}

func TestListRuns_StoreError(t *testing.T) {
	st := &mockStore{}
	st.On("ListRuns", mock.Anything, store.RunFilter{}).Return(nil, eris.New("connection reset"))
	h := newTestServer(st, &fakeRunner{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/runs", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&mockStore{}, &fakeRunner{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/verifications", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
