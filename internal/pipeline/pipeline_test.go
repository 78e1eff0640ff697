package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kulmaganbetov/china-factories-bot/internal/classify"
	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/evidence"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

var (
	factoryCandidate = model.SearchCandidate{
		URL:    "https://hualongchem.cn",
		Title:  "Hualong Chemical Co., Ltd.",
		Domain: "hualongchem.cn",
	}
	traderCandidate = model.SearchCandidate{
		URL:    "https://sinochemtrade.com.cn",
		Title:  "Sinochem Trading",
		Domain: "sinochemtrade.com.cn",
	}
)

func corpusFor(url, text string) *model.SiteCorpus {
	return &model.SiteCorpus{
		URL:       url,
		Pages:     map[model.PageRole]string{model.PageHomepage: text},
		Aggregate: text,
	}
}

// factoryCorpus scores as a manufacturer under the rule fallback; the
// evidence extractor and classifier in these tests are the real ones.
func factoryCorpus() *model.SiteCorpus {
	return corpusFor(factoryCandidate.URL,
		"Our factory operates two production line systems with an output of 50,000 MT per year in the Nanjing industrial park.")
}

func traderCorpus() *model.SiteCorpus {
	return corpusFor(traderCandidate.URL,
		"We are a trading company and import export distributor for specialty chemicals.")
}

func newTestPipeline(st *mockStore, disc Discoverer, sites SiteExtractor) *Pipeline {
	cfg := &config.Config{
		Pipeline: config.PipelineConfig{MaxCandidates: 5, Workers: 3},
	}
	return New(cfg, st, disc, sites,
		evidence.NewExtractor(evidence.DefaultVocabulary()),
		classify.New(nil, config.LLMConfig{}),
	)
}

func queuedRun(req model.ProductRequest) *model.Run {
	return &model.Run{ID: "run-1", Request: req, Status: model.RunStatusQueued}
}

func TestRun_HappyPath(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid", CASNumber: "77-92-9"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", model.RunStatusSearching).Return(nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", model.RunStatusVerifying).Return(nil)
	st.On("CompleteRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	disc := &fakeDiscoverer{candidates: []model.SearchCandidate{traderCandidate, factoryCandidate}}
	sites := &fakeSiteExtractor{corpora: map[string]*model.SiteCorpus{
		factoryCandidate.URL: factoryCorpus(),
		traderCandidate.URL:  traderCorpus(),
	}}

	run, err := newTestPipeline(st, disc, sites).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 2, run.Result.CandidatesFound)
	assert.Equal(t, 2, run.Result.CandidatesVerified)
	assert.Equal(t, 1, run.Result.Manufacturers)
	assert.Equal(t, 1, run.Result.Traders)
	assert.Equal(t, 0, run.Result.Unclear)

	require.Len(t, run.Result.Suppliers, 2)
	assert.Equal(t, factoryCandidate.URL, run.Result.Suppliers[0].Candidate.URL,
		"manufacturer ranks above trader regardless of discovery order")
	assert.Equal(t, model.LabelManufacturer, run.Result.Suppliers[0].Verdict.Classification)
	assert.Equal(t, model.MethodRules, run.Result.Suppliers[0].Verdict.Method)
	assert.Equal(t, model.LabelTrader, run.Result.Suppliers[1].Verdict.Classification)

	require.NotEmpty(t, disc.queries)
	assert.Contains(t, disc.queries[0], "77-92-9", "CAS query leads when a CAS number is given")

	st.AssertExpectations(t)
}

func TestRun_StatusTransitionsInOrder(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", mock.Anything).Return(nil)
	st.On("CompleteRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	disc := &fakeDiscoverer{candidates: []model.SearchCandidate{factoryCandidate}}
	sites := &fakeSiteExtractor{corpora: map[string]*model.SiteCorpus{
		factoryCandidate.URL: factoryCorpus(),
	}}

	_, err := newTestPipeline(st, disc, sites).Run(context.Background(), req)
	require.NoError(t, err)

	var statuses []model.RunStatus
	for _, call := range st.Calls {
		if call.Method == "UpdateRunStatus" {
			statuses = append(statuses, call.Arguments.Get(2).(model.RunStatus))
		}
	}
	assert.Equal(t, []model.RunStatus{model.RunStatusSearching, model.RunStatusVerifying}, statuses)
}

func TestRun_UnreadableSiteDropped(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", mock.Anything).Return(nil)
	st.On("CompleteRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	disc := &fakeDiscoverer{candidates: []model.SearchCandidate{factoryCandidate, traderCandidate}}
	sites := &fakeSiteExtractor{
		corpora: map[string]*model.SiteCorpus{factoryCandidate.URL: factoryCorpus()},
		errs:    map[string]error{traderCandidate.URL: eris.New("scrape: blocked (cdn_challenge)")},
	}

	run, err := newTestPipeline(st, disc, sites).Run(context.Background(), req)
	require.NoError(t, err, "one unreadable site must not fail the run")

	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 2, run.Result.CandidatesFound)
	assert.Equal(t, 1, run.Result.CandidatesVerified)
	require.Len(t, run.Result.Suppliers, 1)
	assert.Equal(t, factoryCandidate.URL, run.Result.Suppliers[0].Candidate.URL)
}

func TestRun_EmptyProductName(t *testing.T) {
	st := new(mockStore)

	_, err := newTestPipeline(st, &fakeDiscoverer{}, &fakeSiteExtractor{}).
		Run(context.Background(), model.ProductRequest{Name: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product name required")
	st.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
}

func TestRun_NoCandidatesCompletesEmpty(t *testing.T) {
	req := model.ProductRequest{Name: "unobtainium chloride"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", mock.Anything).Return(nil)
	st.On("CompleteRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	sites := &fakeSiteExtractor{}
	run, err := newTestPipeline(st, &fakeDiscoverer{}, sites).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 0, run.Result.CandidatesFound)
	assert.Empty(t, run.Result.Suppliers)
	assert.Equal(t, 0, sites.callCount())
	st.AssertExpectations(t)
}

func TestRun_CandidateCap(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid"}

	var candidates []model.SearchCandidate
	corpora := make(map[string]*model.SiteCorpus)
	for _, host := range []string{"a.cn", "b.cn", "c.cn", "d.cn", "e.cn", "f.cn", "g.cn"} {
		url := "https://" + host
		candidates = append(candidates, model.SearchCandidate{URL: url, Domain: host})
		corpora[url] = corpusFor(url, "Chemical factory with own production line.")
	}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", mock.Anything).Return(nil)
	st.On("CompleteRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	sites := &fakeSiteExtractor{corpora: corpora}
	run, err := newTestPipeline(st, &fakeDiscoverer{candidates: candidates}, sites).
		Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 7, run.Result.CandidatesFound)
	assert.Equal(t, 5, run.Result.CandidatesVerified)
	assert.Equal(t, 5, sites.callCount(), "only the capped candidates are fetched")
}

func TestRun_CancelledContextFailsRun(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", model.RunStatusSearching).Return(nil)
	st.On("FailRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	disc := &fakeDiscoverer{candidates: []model.SearchCandidate{factoryCandidate}}
	run, err := newTestPipeline(st, disc, &fakeSiteExtractor{}).Run(ctx, req)
	require.Error(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
	st.AssertExpectations(t)
}

func TestRun_CreateRunError(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(nil, eris.New("disk full"))

	_, err := newTestPipeline(st, &fakeDiscoverer{}, &fakeSiteExtractor{}).
		Run(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create run")
}

func TestRun_SaveFailureDoesNotFailRun(t *testing.T) {
	req := model.ProductRequest{Name: "citric acid"}

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, req).Return(queuedRun(req), nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", mock.Anything).Return(nil)
	st.On("CompleteRun", mock.Anything, "run-1", mock.Anything).Return(eris.New("connection reset"))

	disc := &fakeDiscoverer{candidates: []model.SearchCandidate{factoryCandidate}}
	sites := &fakeSiteExtractor{corpora: map[string]*model.SiteCorpus{
		factoryCandidate.URL: factoryCorpus(),
	}}

	run, err := newTestPipeline(st, disc, sites).Run(context.Background(), req)
	require.NoError(t, err, "a failed result save degrades to a warning")
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
}
