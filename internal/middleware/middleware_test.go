package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.seen = token
	return s.claims, s.err
}

type recordingObserver struct {
	path   string
	status int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.path = path
	r.status = status
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/plans/:planId/session", handlers...)
	return r
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router := newRouter(JWT(&stubValidator{}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/p/session", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	validator := &stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	router := newRouter(JWT(validator))
	req := httptest.NewRequest(http.MethodGet, "/plans/p/session", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "nope", validator.seen)
}

func TestJWTAndRolesAllowCoach(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleCoach}}
	router := newRouter(JWT(validator), RequireRoles(models.RoleCoach, models.RoleAdmin))
	req := httptest.NewRequest(http.MethodGet, "/plans/p/session", nil)
	req.Header.Set("Authorization", "bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesForbidsAthlete(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u-2", Role: models.RoleAthlete}}
	router := newRouter(JWT(validator), RequireRoles(models.RoleCoach, models.RoleAdmin))
	req := httptest.NewRequest(http.MethodGet, "/plans/p/session", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOptionalJWTIgnoresBadToken(t *testing.T) {
	validator := &stubValidator{err: errors.New("expired")}
	var attached bool
	router := newRouter(OptionalJWT(validator), func(c *gin.Context) {
		_, attached = c.Get(ContextUserKey)
		c.Next()
	})
	req := httptest.NewRequest(http.MethodGet, "/plans/p/session", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, attached)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	router := newRouter(Metrics(observer))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/abc/session", nil))
	assert.Equal(t, "/plans/:planId/session", observer.path)
	assert.Equal(t, http.StatusOK, observer.status)
}

func TestResponseMetaCollectsCacheHit(t *testing.T) {
	var meta map[string]interface{}
	router := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		c.Next()
		meta = ExtractMeta(c)
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/abc/session", nil))
	require.NotNil(t, meta)
	assert.Equal(t, true, meta[cacheHitKey])
}
