package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/service"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/logger"
)

type tokenTable map[string]models.Session

func (t tokenTable) Verify(_ context.Context, token string) (*models.Session, error) {
	s, ok := t[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "unknown session")
	}
	return &s, nil
}

var testTokens = tokenTable{
	"greeter":   {Username: "gina", Permission: models.PermissionGreeter},
	"scheduler": {Username: "sam", Permission: models.PermissionScheduler},
}

func protectedRouter(level int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session(testTokens, "pantry_session"), RequirePermission(level))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentSession(c).Username)
	})
	return router
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestSessionRequiresCredential(t *testing.T) {
	rec := httptest.NewRecorder()
	protectedRouter(models.PermissionGreeter).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrAuthRequired.Code, errorCode(t, rec))
}

func TestSessionRejectsUnknownToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	protectedRouter(models.PermissionGreeter).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionFromCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pantry_session", Value: "greeter"})
	rec := httptest.NewRecorder()
	protectedRouter(models.PermissionGreeter).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gina", rec.Body.String())
}

func TestRequirePermission(t *testing.T) {
	router := protectedRouter(models.PermissionScheduler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer greeter")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer scheduler")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequirePermission(models.PermissionGreeter), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuditLogsSuccessfulMutationsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(Session(testTokens, ""))
	router.PUT("/ok", Audit(zap.New(core), "save_fulfillment"), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.PUT("/bad", Audit(zap.New(core), "save_fulfillment"), func(c *gin.Context) { c.Status(http.StatusConflict) })

	for _, path := range []string{"/ok", "/bad"} {
		req := httptest.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", "Bearer scheduler")
		req.Header.Set(logger.ConnectionHeader, "conn-7")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sam", fields["username"])
	assert.Equal(t, "conn-7", fields["connection_id"])
	assert.Equal(t, "/ok", fields["path"])
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/fulfillments/:family", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fulfillments/Smith", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" {
					paths[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"/fulfillments/:family": 1, "unmatched": 1}, paths)
}
