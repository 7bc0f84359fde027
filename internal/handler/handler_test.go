package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/models"
	"prompt-matrix/internal/service"
	"prompt-matrix/internal/txt2img"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type testServer struct {
	router  http.Handler
	jobs    *service.JobService
	history *service.HistoryService
}

func newTestServer(t *testing.T, guard *service.ExpansionGuard) *testServer {
	t.Helper()
	return newTestServerWithOrigin(t, guard, "")
}

func newTestServerWithOrigin(t *testing.T, guard *service.ExpansionGuard, origin string) *testServer {
	t.Helper()
	ctx := context.Background()
	store := &memStore{data: map[string]string{}}
	logger := zerolog.New(io.Discard)
	m := metrics.NewMetrics()

	jobs, err := service.NewJobService(ctx, store, guard, m, logger)
	require.NoError(t, err)
	history, err := service.NewHistoryService(ctx, store, logger)
	require.NoError(t, err)

	h := NewHandler(jobs, history, m, "python", logger)
	return &testServer{router: NewRouter(h, origin), jobs: jobs, history: history}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandler_PromptFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPut, "/prompt", models.PromptRequest{Prompt: "a $color $animal"})
	require.Equal(t, http.StatusOK, rec.Code)
	tokens := decodeBody[models.TokensResponse](t, rec)
	assert.Equal(t, []string{"color", "animal"}, tokens.Names)
	assert.False(t, tokens.Ready)

	rec = s.do(t, http.MethodPut, "/variables/color", models.VariableRequest{Values: []string{"red", "blue"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, "/variables/animal", models.VariableRequest{Values: []string{"cat"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/prompt/tokens", nil)
	assert.True(t, decodeBody[models.TokensResponse](t, rec).Ready)

	rec = s.do(t, http.MethodGet, "/prompt/matrix", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matrix := decodeBody[models.MatrixResponse](t, rec)
	assert.Equal(t, []string{"a red cat", "a blue cat"}, matrix.Prompts)
	assert.Equal(t, 2, matrix.Size)

	rec = s.do(t, http.MethodPost, "/queue/matrix", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decodeBody[[]models.Job](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/queue", nil)
	assert.Len(t, decodeBody[[]models.Job](t, rec), 2)
}

func TestHandler_EnqueueMatrixNotReady(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPut, "/prompt", models.PromptRequest{Prompt: "$missing"})

	rec := s.do(t, http.MethodPost, "/queue/matrix", models.EnqueueMatrixRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_EnqueueMatrixTooLarge(t *testing.T) {
	s := newTestServer(t, service.NewExpansionGuard(1, 1))
	s.do(t, http.MethodPut, "/prompt", models.PromptRequest{Prompt: "$x"})
	s.do(t, http.MethodPut, "/variables/x", models.VariableRequest{Values: []string{"1", "2"}})

	rec := s.do(t, http.MethodPost, "/queue/matrix", models.EnqueueMatrixRequest{})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = s.do(t, http.MethodPost, "/queue/matrix", models.EnqueueMatrixRequest{Force: true})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_QueueOperations(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/queue", models.EnqueueRequest{Params: models.Parameters{Prompt: "a"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	a := decodeBody[models.Job](t, rec)
	rec = s.do(t, http.MethodPost, "/queue", models.EnqueueRequest{Params: models.Parameters{Prompt: "b"}})
	b := decodeBody[models.Job](t, rec)

	rec = s.do(t, http.MethodPost, "/queue/"+b.ID+"/skip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusSkipped, decodeBody[models.Job](t, rec).Status)

	rec = s.do(t, http.MethodPut, "/queue/"+a.ID+"/status", models.UpdateStatusRequest{Status: models.StatusRunning})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/queue/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, a.ID, decodeBody[models.Job](t, rec).ID)

	s.do(t, http.MethodPost, "/queue/"+b.ID+"/skip", nil)
	rec = s.do(t, http.MethodPut, "/queue/"+b.ID+"/status", models.UpdateStatusRequest{Status: models.StatusRunning})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPut, "/queue/"+a.ID+"/status", models.UpdateStatusRequest{Status: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.do(t, http.MethodPut, "/queue/"+a.ID+"/status", models.UpdateStatusRequest{Status: models.StatusCompleted})
	rec = s.do(t, http.MethodGet, "/queue?view=incomplete", nil)
	assert.Len(t, decodeBody[[]models.Job](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/queue/clear-completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Job](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/queue/"+b.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/queue/"+b.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/queue/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_EnqueueValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/queue", models.EnqueueRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/queue", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_EnqueueOmittedSeed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/queue", bytes.NewBufferString(`{"params":{"prompt":"a cat"}}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(txt2img.DefaultSeed), decodeBody[models.Job](t, rec).Params.Seed)
}

func TestHandler_QueueSignals(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/queue/start", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodPost, "/queue/stop", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodGet, "/queue/state", nil)
	state := decodeBody[map[string]bool](t, rec)
	assert.True(t, state["start_requested"])
	assert.True(t, state["stop_requested"])
	assert.False(t, state["processing"])
}

func TestHandler_Command(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPut, "/prompt", models.PromptRequest{Prompt: "a cat"})

	rec := s.do(t, http.MethodGet, "/command", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		`python scripts/txt2img.py --plms --prompt "a cat" --n_samples 1 --scale 8 --n_iter 1 --ddim_steps 10 --H 512 --W 512 --seed 42 --fixed_code`,
		decodeBody[map[string]string](t, rec)["command"])

	rec = s.do(t, http.MethodGet, "/command?html=true", nil)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["command"], `--prompt "<b>a cat</b>"`)
}

func TestHandler_Runs(t *testing.T) {
	s := newTestServer(t, nil)
	run, err := s.history.Push(context.Background(), models.Run{Params: models.Parameters{Prompt: "a fox"}})
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/runs?filter=FOX", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Run](t, rec), 1)

	rec = s.do(t, http.MethodPut, "/runs/"+run.ID+"/rating", models.RateRequest{Rating: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RatingFive, decodeBody[models.Run](t, rec).Rating)

	rec = s.do(t, http.MethodPut, "/runs/"+run.ID+"/rating", models.RateRequest{Rating: 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/runs/missing/rating", models.RateRequest{Rating: 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/runs/"+run.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, s.history.Len())
}

func TestHandler_MetricsAndHealth(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/queue", models.EnqueueRequest{Params: models.Parameters{Prompt: "a"}})

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[metrics.Snapshot](t, rec)
	assert.Equal(t, int64(1), snap.EnqueuedJobs)
	assert.Equal(t, 1, snap.QueueLength)
	assert.Equal(t, 1, snap.PendingJobs)

	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_CORSPreflight(t *testing.T) {
	s := newTestServerWithOrigin(t, nil, "http://localhost:1420")

	rec := s.do(t, http.MethodOptions, "/queue", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:1420", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(t, http.MethodGet, "/queue", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:1420", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_NoCORSByDefault(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodOptions, "/queue", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(t, http.MethodGet, "/queue", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
