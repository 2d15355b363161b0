package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newScopedRouter(claims *models.JWTClaims, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/schools/:schoolId", JWT(stubValidator{claims: claims}), SchoolScope())
	handlers := append(extra, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	group.POST("/substitutions/:id/cancel", handlers...)
	return router
}

func doRequest(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAndSchoolScope(t *testing.T) {
	admin := &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin, SchoolID: "school-1"}
	router := newScopedRouter(admin)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "/schools/school-1/substitutions/s-1/cancel", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "/schools/school-1/substitutions/s-1/cancel", "bad").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(router, "/schools/school-1/substitutions/s-1/cancel", "good").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(router, "/schools/school-2/substitutions/s-1/cancel", "good").Code)

	super := &models.JWTClaims{UserID: "u-0", Role: models.RoleSuperAdmin}
	router = newScopedRouter(super)
	assert.Equal(t, http.StatusNoContent, doRequest(router, "/schools/school-2/substitutions/s-1/cancel", "good").Code)
}

func TestRequireManager(t *testing.T) {
	teacher := &models.JWTClaims{UserID: "u-2", Role: models.RoleTeacher, SchoolID: "school-1"}
	router := newScopedRouter(teacher, RequireManager())
	w := doRequest(router, "/schools/school-1/substitutions/s-1/cancel", "good")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrForbidden.Code, body["error"]["code"])
}

func TestAuditLogsSuccessfulWrites(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	admin := &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin, SchoolID: "school-1"}
	router := newScopedRouter(admin, Audit(zap.New(core), "substitution.cancel"))

	doRequest(router, "/schools/school-1/substitutions/s-1/cancel", "good")
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "substitution.cancel", fields["action"])
	assert.Equal(t, "school-1", fields["school_id"])
	assert.Equal(t, "s-1", fields["resource_id"])
	assert.Equal(t, "u-1", fields["user_id"])

	doRequest(router, "/schools/school-2/substitutions/s-1/cancel", "good")
	assert.Equal(t, 1, logs.Len())
}

func TestFeatureFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/off", FeatureFlag(false), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/on", FeatureFlag(true), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/off", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/on", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestTimeout(time.Second))
	var hasDeadline bool
	router.GET("/", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, hasDeadline)
}

type recordingObserver struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(obs))
	router.GET("/teachers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teachers/t-1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	assert.Equal(t, []string{"/teachers/:id", "unmatched"}, obs.paths)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetMeta(c, "candidates", 2)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 2, meta["candidates"])
	assert.Contains(t, meta, processingTimeMs)
}
