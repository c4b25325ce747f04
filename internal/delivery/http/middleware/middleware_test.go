package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cirqle-backend/internal/delivery/http/middleware"
	"cirqle-backend/internal/delivery/http/response"
	"cirqle-backend/pkg/apperror"
	"cirqle-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { response.Success(c, http.StatusOK, "ok", nil) })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(body.RequestID)
	assert.NoError(t, err)
	assert.Equal(t, body.RequestID, w.Header().Get(middleware.RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, incoming)
	_, body = serve(r, req)
	assert.Equal(t, incoming, body.RequestID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "<script>")
	_, body = serve(r, req)
	assert.NotEqual(t, "<script>", body.RequestID)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		c.Error(apperror.Conflict("Cannot rate an activity on the auth screen"))
	})
	r.GET("/details", func(c *gin.Context) {
		c.Error(apperror.BadRequest("Validation failed").WithDetails([]string{"Age: is required"}))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("db password is hunter2"))
	})

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Cannot rate an activity on the auth screen", body.Message)

	w, body = serve(r, httptest.NewRequest(http.MethodGet, "/details", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []interface{}{"Age: is required"}, body.Error)

	w, body = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.False(t, body.Success)
}

func TestInMemoryRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(nil)
	defer limiter.Close()

	r := gin.New()
	r.Use(limiter.Middleware(middleware.GlobalRateLimitConfig(3, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := range 3 {
		w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"2", "1", "0"}[i], w.Header().Get("X-RateLimit-Remaining"))
	}
	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeadersMiddleware(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	w, _ := serve(r, req)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}
