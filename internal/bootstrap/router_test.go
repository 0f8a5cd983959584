package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpixel/agency-backend/config"
	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/authtest"
	"github.com/brightpixel/agency-backend/internal/auth/repository"
)

func testConfig(bypass bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", CORSAllowedOrigins: []string{"https://agency.test"}},
		App:    config.AppConfig{Environment: "test", Version: "0.0.1"},
		Auth: config.AuthConfig{
			BypassAuth: bypass,
			CookieName: "__session",
			SessionTTL: 24 * time.Hour,
		},
		Directory: config.DirectoryConfig{Backend: config.BackendRedis},
		RateLimit: config.RateLimitConfig{RPS: 100, Burst: 100},
	}
}

func newTestRouter(t *testing.T, bypass bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client, err := ConnectRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	provider := authtest.NewFakeProvider()
	r, stop := BuildRouter(RouterDeps{
		ServiceName: "agency-auth",
		Config:      testConfig(bypass),
		Provider:    provider,
		Directory:   repository.NewRedisUserRepository(client),
	})
	t.Cleanup(stop)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBuildRouter_HealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"directory":"up"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agency_auth_http_request_duration_seconds")
}

func TestBuildRouter_AdminRequiresAuth(t *testing.T) {
	r := newTestRouter(t, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get(auth.BypassHeader))
}

func TestBuildRouter_BypassAdmitsAdminRoutes(t *testing.T) {
	r := newTestRouter(t, true)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", w.Header().Get(auth.BypassHeader))
}

func TestBuildRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/status", nil)
	req.Header.Set("Origin", "https://agency.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://agency.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOpenDirectory_UnknownBackend(t *testing.T) {
	cfg := testConfig(false)
	cfg.Directory.Backend = "memcache"
	_, err := OpenDirectory(context.Background(), cfg, nil)
	assert.Error(t, err)
}
