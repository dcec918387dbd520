package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/visits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type server struct {
	router   *chi.Mux
	recorder *visits.Recorder
	consumer *messaging.Consumer[visits.Visit]
}

func newServer(t *testing.T, visitStore visits.Store) *server {
	t.Helper()

	logger := zap.NewNop()
	bus := messaging.NewMemoryBus(16, watermill.NopLogger{})

	consumer := messaging.NewConsumer(bus, visits.TopicVisitRegistered, visits.NewPersistHandler(visitStore), logger,
		messaging.WithHandleAttempts(1, time.Millisecond))
	require.NoError(t, consumer.Start(context.Background()))

	recorder, err := visits.NewRecorder(
		messaging.NewPublishFunc[visits.Visit](bus, visits.TopicVisitRegistered),
		logger,
		visits.RecorderOptions{},
	)
	require.NoError(t, err)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	service := shortener.NewService(store.NewMemoryStore(), "http://short.test")
	handlers.RegisterRoutes(api, handlers.NewURLHandler(service, recorder, visitStore, logger))

	s := &server{router: router, recorder: recorder, consumer: consumer}

	t.Cleanup(func() {
		_ = recorder.Shutdown()
		_ = consumer.Shutdown()
		_ = bus.Close()
	})

	return s
}

func (s *server) do(method, path, accept string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

type shortenBody struct {
	URL       string `json:"url"`
	Shorten   string `json:"shorten"`
	Hash      string `json:"hash"`
	RemoveURL string `json:"removeUrl"`
	Created   bool   `json:"created"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestRoutes_EndToEnd(t *testing.T) {
	s := newServer(t, store.NewMemoryVisitStore())

	w := s.do(http.MethodPost, "/", "", map[string]string{"url": testURL})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	created := decode[shortenBody](t, w)
	assert.True(t, created.Created)
	assert.Equal(t, "http://short.test/"+created.Hash, created.Shorten)

	again := decode[shortenBody](t, s.do(http.MethodPost, "/", "", map[string]string{"url": testURL}))
	assert.False(t, again.Created)
	assert.Equal(t, created.Hash, again.Hash)

	w = s.do(http.MethodGet, "/"+created.Hash, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testURL, w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/"+created.Hash, "text/plain", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testURL, w.Body.String())

	w = s.do(http.MethodGet, "/"+created.Hash, "application/json", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testURL, decode[handlers.ResolveBody](t, w).URL)

	type visitsBody struct {
		VisitsCount int `json:"visitsCount"`
	}

	assert.Eventually(t, func() bool {
		w := s.do(http.MethodGet, "/"+created.Hash+"/visits", "", nil)

		return w.Code == http.StatusOK && decode[visitsBody](t, w).VisitsCount == 3
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(http.MethodDelete, "/"+created.Hash+"/remove/NoValid", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":false`)

	w = s.do(http.MethodDelete, created.RemoveURL[len("http://short.test"):], "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":true`)

	w = s.do(http.MethodGet, "/"+created.Hash, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	recreated := decode[shortenBody](t, s.do(http.MethodPost, "/", "", map[string]string{"url": testURL}))
	assert.True(t, recreated.Created)
	assert.NotEqual(t, created.Hash, recreated.Hash)
}

func TestRoutes_Errors(t *testing.T) {
	s := newServer(t, store.NewMemoryVisitStore())

	t.Run("missing url is a bad request", func(t *testing.T) {
		w := s.do(http.MethodPost, "/", "", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid url is a bad request", func(t *testing.T) {
		w := s.do(http.MethodPost, "/", "", map[string]string{"url": "com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown alias is not found", func(t *testing.T) {
		w := s.do(http.MethodGet, "/doesNotExist", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRoutes_VisitStoreFailureDoesNotFailRedirect(t *testing.T) {
	s := newServer(t, failingVisitStore{})

	created := decode[shortenBody](t, s.do(http.MethodPost, "/", "", map[string]string{"url": testURL}))

	w := s.do(http.MethodGet, "/"+created.Hash, "", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testURL, w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/"+created.Hash+"/visits", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
