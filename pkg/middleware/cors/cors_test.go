package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func preflight(allowed []string, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/schools/sunrise/leads", nil)
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSOrigins(t *testing.T) {
	allowed := []string{"https://admin.preschool.app/", "https://*.preschool.app"}

	cases := map[string]bool{
		"https://admin.preschool.app":   true,
		"https://sunrise.preschool.app": true,
		"http://sunrise.preschool.app":  false,
		"https://preschool.app":         false,
		"https://evil.example.com":      false,
	}
	for origin, want := range cases {
		w := preflight(allowed, origin)
		assert.Equal(t, http.StatusNoContent, w.Code)
		got := w.Header().Get("Access-Control-Allow-Origin") == origin
		assert.Equal(t, want, got, origin)
	}
}

func TestCORSAllowAllWhenUnconfigured(t *testing.T) {
	w := preflight(nil, "https://anything.test")
	assert.Equal(t, "https://anything.test", w.Header().Get("Access-Control-Allow-Origin"))
}
