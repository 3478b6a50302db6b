package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/recursions-backend-go/internal/analysis"
	_ "github.com/jengzang/recursions-backend-go/internal/analysis/recursion"
	"github.com/jengzang/recursions-backend-go/internal/config"
	"github.com/jengzang/recursions-backend-go/internal/database"
	"github.com/jengzang/recursions-backend-go/internal/metrics"
	"github.com/jengzang/recursions-backend-go/internal/middleware"
	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/repository"
	"github.com/jengzang/recursions-backend-go/internal/service"
)

const testSecret = "router-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	tasks  *service.AnalysisTaskService
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationManager(db).RunMigrations())

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: testSecret, DefaultTimeUnit: "secs", Workers: 1}
	limiter := middleware.NewRateLimiter(rateLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	trajRepo := repository.NewTrajectoryRepository(db)
	tasks := service.NewAnalysisTaskService(repository.NewAnalysisTaskRepository(db),
		&analysis.Env{DB: db, Metrics: collector, Workers: 1})
	t.Cleanup(tasks.Wait)

	return &testServer{
		router: SetupRouter(cfg, Deps{
			Trajectories: service.NewTrajectoryService(trajRepo, 0),
			Recursions:   service.NewRecursionService(trajRepo, repository.NewRecursionRepository(db), collector, 1, 0),
			Tasks:        tasks,
			Metrics:      collector,
			Limiter:      limiter,
		}),
		tasks: tasks,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	w, _ := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInlineRecursions(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodPost, "/api/v1/recursions", models.RecursionRequest{
		X:         []float64{0, 10, 0, 10},
		Y:         []float64{0, 0, 0, 0},
		T:         []float64{0, 1, 2, 3},
		LocX:      []float64{0},
		LocY:      []float64{0},
		Radius:    5,
		Threshold: 2,
		Verbose:   true,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.RecursionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, []int{1}, resp.Revisits)
	assert.InDelta(t, 2.5, resp.ResidenceTime[0], 1e-9)
	assert.Equal(t, "secs", resp.TimeUnits)
	require.Len(t, resp.RevisitStats, 1)
	assert.InDelta(t, 2.5, resp.RevisitStats[0].ExitTime, 1e-9)

	w, _ = s.do(t, http.MethodPost, "/api/v1/recursions", models.RecursionRequest{
		X: []float64{0, 1}, Y: []float64{0}, T: []float64{0, 1}, Radius: 1,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/recursions", map[string]interface{}{"x": []float64{0}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `recursion_runs_total{mode="inline",outcome="ok"} 1`)
}

func TestDatasetRecursions(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodPost, "/api/v1/datasets", models.CreateDatasetRequest{
		Name: "pass",
		X:    []float64{-3, -1, 1, 3},
		Y:    []float64{0, 0, 0, 0},
		T:    []float64{0, 1, 2, 3},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ds models.Dataset
	require.NoError(t, json.Unmarshal(env.Data, &ds))

	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/datasets/%d", ds.ID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/datasets/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/datasets/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/datasets/%d/recursions", ds.ID), models.DatasetRecursionRequest{
		LocX: []float64{0}, LocY: []float64{0}, Radius: 2, Verbose: true,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.RecursionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.RunID)

	w, env = s.do(t, http.MethodGet, "/api/v1/recursions/"+resp.RunID+"?events=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail models.RecursionRunDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, resp.RunID, detail.Run.ID)
	assert.Len(t, detail.Events, 1)
	assert.Equal(t, 1, detail.Summary.TotalVisits)

	w, _ = s.do(t, http.MethodGet, "/api/v1/recursions/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/datasets", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"pass"`)
}

func TestRateLimitedCompute(t *testing.T) {
	s := newTestServer(t, 1)
	req := models.RecursionRequest{X: []float64{0}, Y: []float64{0}, T: []float64{0}, Radius: 1}

	w, _ := s.do(t, http.MethodPost, "/api/v1/recursions", req, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/recursions", req, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAdminTasks(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodPost, "/api/v1/datasets", models.CreateDatasetRequest{
		Name: "pass", X: []float64{-3, -1, 1, 3}, Y: []float64{0, 0, 0, 0}, T: []float64{0, 1, 2, 3},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ds models.Dataset
	require.NoError(t, json.Unmarshal(env.Data, &ds))

	body := map[string]interface{}{
		"skill_name": "recursion",
		"params":     map[string]interface{}{"dataset_id": ds.ID, "radius": 2},
	}

	w, _ = s.do(t, http.MethodPost, "/api/admin/analysis/tasks", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := middleware.IssueToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)

	w, env = s.do(t, http.MethodPost, "/api/admin/analysis/tasks", body, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var task models.AnalysisTask
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "ops", task.CreatedBy)
	s.tasks.Wait()

	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/admin/analysis/tasks/%d", task.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Contains(t, task.ResultSummary, `"run_id"`)

	w, _ = s.do(t, http.MethodPost, "/api/admin/analysis/tasks", map[string]interface{}{"skill_name": "unknown"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/admin/analysis/tasks", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}
