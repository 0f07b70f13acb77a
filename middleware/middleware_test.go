package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jjrmrcly79/naturalezamistica/logger"
	"github.com/jjrmrcly79/naturalezamistica/middleware"
	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/pkg/metrics"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock Authenticator ---

type mockAuth struct {
	identity *models.Identity
	err      error
	calls    int
}

func (m *mockAuth) Authenticate(_ context.Context, _ string) (*models.Identity, error) {
	m.calls++
	return m.identity, m.err
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	called := false
	r.POST("/create-checkout", func(c *gin.Context) { called = true })

	w := serve(r, httptest.NewRequest(http.MethodOptions, "/create-checkout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.False(t, called)
}

func TestCORSMiddleware_HeadersWithoutOrigin(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusTeapot, gin.H{"error": "x"}) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = c.GetString(logger.RequestIDKey) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/bad", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(middleware.Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("secret stack detail") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Timeout(10 * time.Millisecond))
	var err error
	r.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
		err = c.Request.Context().Err()
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := middleware.NewRateLimiter(60, 2, time.Minute)
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(rl))
	r.POST("/create-checkout", func(c *gin.Context) { c.Status(http.StatusOK) })

	newReq := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/create-checkout", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}

	assert.Equal(t, http.StatusOK, serve(r, newReq("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(r, newReq("10.0.0.1")).Code)
	w := serve(r, newReq("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")

	assert.Equal(t, http.StatusOK, serve(r, newReq("10.0.0.2")).Code)
}

func TestRateLimiter_CleanupResetsIdleEntries(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1, time.Nanosecond)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	time.Sleep(time.Millisecond)
	rl.Cleanup()
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewServerMetrics()
	r := gin.New()
	r.Use(middleware.MetricsMiddleware(m))
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/products/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/products/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def": "abc.def",
		"bearer   abc":   "abc",
		"abc":            "abc",
		"":               "",
		"Bearer ":        "",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, middleware.BearerToken(c), "header %q", header)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name   string
		header string
		auth   *mockAuth
		want   int
	}{
		{"no credential", "", &mockAuth{}, http.StatusUnauthorized},
		{"invalid", "Bearer bad", &mockAuth{err: errors.New("invalid")}, http.StatusUnauthorized},
		{"auth not configured", "Bearer ok", &mockAuth{err: services.ErrAuthNotConfigured}, http.StatusInternalServerError},
		{"auth timed out", "Bearer ok", &mockAuth{err: fmt.Errorf("verify: %w", context.DeadlineExceeded)}, http.StatusInternalServerError},
		{"not admin", "Bearer ok", &mockAuth{identity: &models.Identity{UserID: "u1", Role: "authenticated"}}, http.StatusForbidden},
		{"admin", "Bearer ok", &mockAuth{identity: &models.Identity{UserID: "u1", Role: "admin"}}, http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.RequireAdmin(tc.auth, zap.NewNop()))
			r.GET("/admin", func(c *gin.Context) {
				assert.NotNil(t, middleware.GetIdentity(c))
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, serve(r, req).Code)
		})
	}
}
