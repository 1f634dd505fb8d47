package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/lleria/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Body string `json:"body"`
}

func setupTestAPI(t *testing.T) (*chi.Mux, huma.API) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMetaMiddleware(api))

	return router, api
}

// serveMeta registers /test, performs req and returns the captured request metadata.
func serveMeta(t *testing.T, req *http.Request) (middleware.RequestMeta, *httptest.ResponseRecorder) {
	t.Helper()

	router, api := setupTestAPI(t)
	metaChan := make(chan middleware.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		meta, ok := middleware.RequestMetaFromContext(ctx)
		require.True(t, ok)

		metaChan <- meta

		return &testOutput{Body: "ok"}, nil
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return <-metaChan, w
}

func TestRequestMeta(t *testing.T) {
	t.Run("extracts user-agent and referrer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")
		req.Header.Set("Referer", "https://example.com")

		meta, _ := serveMeta(t, req)

		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
	})

	t.Run("generates a request id and echoes it", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		meta, w := serveMeta(t, req)

		assert.NotEmpty(t, meta.RequestID)
		assert.Equal(t, meta.RequestID, w.Header().Get(middleware.HeaderRequestID))
	})

	t.Run("reuses an incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.HeaderRequestID, "req-123")

		meta, w := serveMeta(t, req)

		assert.Equal(t, "req-123", meta.RequestID)
		assert.Equal(t, "req-123", w.Header().Get(middleware.HeaderRequestID))
	})

	t.Run("extracts IP from X-Forwarded-For with single IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1")

		meta, _ := serveMeta(t, req)

		assert.Equal(t, "192.168.1.1", meta.ClientIP)
	})

	t.Run("extracts first IP from X-Forwarded-For with multiple IPs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1, 172.16.0.1")

		meta, _ := serveMeta(t, req)

		assert.Equal(t, "192.168.1.1", meta.ClientIP)
	})

	t.Run("extracts IP from X-Real-IP when X-Forwarded-For is absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")

		meta, _ := serveMeta(t, req)

		assert.Equal(t, "10.0.0.1", meta.ClientIP)
	})

	t.Run("falls back to remote address when no IP headers present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		meta, _ := serveMeta(t, req)

		// httptest requests originate from 192.0.2.1:1234
		assert.Equal(t, "192.0.2.1", meta.ClientIP)
	})
}
