package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenBucketExhausts(t *testing.T) {
	l := NewSimpleTokenBucket(3, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(nil, "ip-1"), "request %d should pass", i)
	}
	assert.False(t, l.Allow(nil, "ip-1"))

	// A different client has its own bucket.
	assert.True(t, l.Allow(nil, "ip-2"))
}

func TestGinMiddlewareRejectsOverBudget(t *testing.T) {
	r := gin.New()
	r.Use(GinMiddleware(NewSimpleTokenBucket(1, 1)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
