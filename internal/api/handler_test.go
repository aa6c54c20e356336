package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gohoops/internal/aggregator"
	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/scraper"
	"github.com/jonesrussell/gohoops/internal/tasks"
	"github.com/jonesrussell/gohoops/internal/teams"
)

type apiFixture struct {
	router   *gin.Engine
	registry *tasks.Registry
	runner   *tasks.Runner
	store    *dataset.Store
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNoop()
	store, err := dataset.NewStore(t.TempDir(), log)
	require.NoError(t, err)

	client := fetch.NewClient(fetch.Config{}, log)
	scrapers := scraper.NewService(client, store, log)
	agg := aggregator.New(store, teams.NewNormalizer(), log)

	registry := tasks.NewRegistry(log)
	runner := tasks.NewRunner(log)
	handler := NewHandler(registry, runner, scrapers, agg, 2025, log)

	return &apiFixture{
		router:   NewRouter(handler),
		registry: registry,
		runner:   runner,
		store:    store,
	}
}

func (f *apiFixture) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

// The 2020 season is excluded from every range, so a 2020-only scrape
// starts, visits no years, and completes without touching the network.
func TestScrapeStartsBackgroundTask(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/v1/scrape/stats?start_year=2020&end_year=2020")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "scraping started in the background", body["message"])

	taskID, ok := body["task_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, taskID)

	f.runner.Wait()

	rec, body = f.do(t, http.MethodGet, "/api/v1/tasks/"+taskID)
	require.Equal(t, http.StatusOK, rec.Code)
	task, ok := body["task"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, taskID, task["id"])
	assert.Equal(t, string(domain.TaskScrapeStats), task["type"])
	assert.Equal(t, string(domain.StatusSuccess), task["status"])
	assert.Equal(t, float64(100), task["progress"])
}

func TestScrapeInvalidYearFormat(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/v1/scrape/all?start_year=not-a-year")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "invalid year format")
}

func TestScrapeFutureYearRejected(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/v1/scrape/trank?start_year=2024&end_year=2030")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestScrapeReversedRangeRejected(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/scrape/ratings?start_year=2024&end_year=2021")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTaskUnknown(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/v1/tasks/no-such-id")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", body["error"])
}

func TestListTasks(t *testing.T) {
	f := newAPIFixture(t)
	f.registry.Create(domain.TaskScrapeStats, nil)
	f.registry.Create(domain.TaskScrapeScores, nil)

	rec, body := f.do(t, http.MethodGet, "/api/v1/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	listed, ok := body["tasks"].([]any)
	require.True(t, ok)
	assert.Len(t, listed, 2)
}

func TestCancelTask(t *testing.T) {
	f := newAPIFixture(t)
	task := f.registry.Create(domain.TaskScrapeAll, nil)

	rec, body := f.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID()+"/cancel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "task cancellation requested", body["message"])
	assert.Equal(t, domain.StatusCancelled, task.Status())

	rec, _ = f.do(t, http.MethodPost, "/api/v1/tasks/no-such-id/cancel")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAggregateYearMissingDataConflict(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/v1/aggregate/2024")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "TRank2024")
	assert.Contains(t, body["error"], "(re)scrape")
}

func TestAggregateYearInvalidParam(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/v1/aggregate/march")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid year format: march")
}

func TestAggregateYearSuccess(t *testing.T) {
	f := newAPIFixture(t)
	seedAggregationInputs(t, f.store, 2024)

	rec, body := f.do(t, http.MethodPost, "/api/v1/aggregate/2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["teams"])
	assert.True(t, f.store.Exists("Combined2024"))
}

func TestAggregateRange(t *testing.T) {
	f := newAPIFixture(t)
	seedAggregationInputs(t, f.store, 2023)
	seedAggregationInputs(t, f.store, 2024)

	rec, body := f.do(t, http.MethodPost, "/api/v1/aggregate?start_year=2023&end_year=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.True(t, f.store.Exists("Combined2023"))
	assert.True(t, f.store.Exists("Combined2024"))
}

func seedAggregationInputs(t *testing.T, store *dataset.Store, year int) {
	t.Helper()

	names := []string{"TRank%d", "TeamRankingsRatings%d", "TeamRankingsStats%d"}
	for _, pattern := range names {
		ds := dataset.NewKeyed("TEAM")
		ds.Set("Duke", "metric", "1")
		ds.Set("Kansas", "metric", "2")
		require.NoError(t, store.WriteDataset(fmt.Sprintf(pattern, year), ds))
	}
}
