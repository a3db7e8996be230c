package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", "consultorio-api", time.Hour)
	m := NewAuthMiddleware(jwtSvc)

	engine := gin.New()
	engine.GET("/me", m.Authenticate(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(handler.CtxUsername))
	})
	engine.GET("/admin", m.Authenticate(), m.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	reception, _, err := jwtSvc.GenerateAccessToken(uuid.New(), "recepcao", model.RoleReception)
	require.NoError(t, err)
	admin, _, err := jwtSvc.GenerateAccessToken(uuid.New(), "admin", model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + reception, http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + reception, http.StatusOK},
		{"lowercase scheme", "/me", "bearer " + reception, http.StatusOK},
		{"role denied", "/admin", "Bearer " + reception, http.StatusForbidden},
		{"role allowed", "/admin", "Bearer " + admin, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(engine, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2})
	engine := gin.New()
	engine.Use(limiter.RateLimit())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"), "buckets are per client")
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(handler.CtxRequestID)) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w = serve(engine, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 200))
	w = serve(engine, req)
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://recepcao.clinica.local"}
	engine := gin.New()
	engine.Use(CORS(cfg))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set("Origin", "https://recepcao.clinica.local")
	w := serve(engine, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://recepcao.clinica.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	denied := httptest.NewRequest(http.MethodOptions, "/", nil)
	denied.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(engine, denied).Code)

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.Header.Set("Origin", "https://evil.example")
	w = serve(engine, plain)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSizeLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(SizeLimit(16))
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a very long body"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
