package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelstore-backend/internal/shared"
	"novelstore-backend/pkg/jwt"
)

func newAdminRouter(m *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), RequestID())
	r.GET("/admin/ping", AuthMiddleware(m), AdminMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(shared.ContextKeyUserID))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestAuthAndAdminMiddleware(t *testing.T) {
	m := jwt.NewManager("secret", "novelstore")

	adminToken, err := m.GenerateAccessToken("admin-1", jwt.RoleAdmin)
	require.NoError(t, err)
	userToken, err := m.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"non-admin role", "Bearer " + userToken, http.StatusForbidden, ""},
		{"admin", "Bearer " + adminToken, http.StatusOK, "admin-1"},
	}

	router := newAdminRouter(m)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	router := newAdminRouter(jwt.NewManager("secret", ""))

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set(HeaderRequestID, "trace-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(HeaderRequestID))
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	router := newAdminRouter(jwt.NewManager("secret", ""))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "SYS_INTERNAL_ERROR")
}
