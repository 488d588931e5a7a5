package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"grc-risk/internal/aggregate"
	"grc-risk/internal/apperr"
	"grc-risk/internal/models"
)

// brokenStore fails every call the way a lost database connection would.
type brokenStore struct{}

func storageErr(msg string) error {
	return goerr.Wrap(errors.New("sql: database is closed"), msg, goerr.T(apperr.ErrTagStorage))
}

func (brokenStore) CreateRisk(context.Context, *models.Risk) error {
	return storageErr("failed to insert risk")
}
func (brokenStore) ListRisks(context.Context, string) ([]models.Risk, error) {
	return nil, storageErr("failed to fetch risks")
}
func (brokenStore) AllRisks(context.Context) ([]models.Risk, error) {
	return nil, storageErr("failed to fetch risks")
}
func (brokenStore) GetRisk(context.Context, uint) (models.Risk, error) {
	return models.Risk{}, storageErr("failed to fetch risk")
}
func (brokenStore) DeleteRisk(context.Context, uint) error {
	return storageErr("failed to delete risk")
}
func (brokenStore) Stats(context.Context) (aggregate.Stats, error) {
	return aggregate.Stats{}, storageErr("failed to fetch risks")
}
func (brokenStore) Heatmap(context.Context) (aggregate.Heatmap, error) {
	return nil, storageErr("failed to fetch risks")
}
func (brokenStore) Ping(context.Context) error {
	return storageErr("database ping failed")
}

func newBrokenEngine(logs *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	h := New(brokenStore{}, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxlog.With(c.Request.Context(), logger))
		c.Next()
	})
	r.POST("/assess-risk", h.AssessRisk)
	r.GET("/risks", h.ListRisks)
	r.GET("/risks/export", h.ExportRisks)
	r.GET("/risks/:id", h.GetRisk)
	r.DELETE("/risks/:id", h.DeleteRisk)
	r.GET("/stats", h.Stats)
	r.GET("/heatmap", h.Heatmap)
	r.GET("/health", h.Health)
	return r
}

func TestStorageFailures(t *testing.T) {
	testCases := []struct {
		method string
		path   string
		body   string
		msg    string
	}{
		{http.MethodPost, "/assess-risk", `{"asset":"A","threat":"T","likelihood":2,"impact":2}`, "Failed to insert risk"},
		{http.MethodGet, "/risks", "", "Failed to fetch risks"},
		{http.MethodGet, "/risks/export", "", "Failed to fetch risks"},
		{http.MethodGet, "/risks/1", "", "Failed to fetch risk"},
		{http.MethodDelete, "/risks/1", "", "Failed to delete risk"},
		{http.MethodGet, "/stats", "", "Failed to fetch statistics"},
		{http.MethodGet, "/heatmap", "", "Failed to fetch heatmap data"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var logs bytes.Buffer
			r := newBrokenEngine(&logs)

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			gt.Equal(t, w.Code, http.StatusInternalServerError)

			var resp map[string]string
			gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			gt.Equal(t, resp["error"], tc.msg)
			gt.False(t, strings.Contains(w.Body.String(), "database is closed"))
			gt.S(t, logs.String()).Contains("application error")
		})
	}
}

func TestHealthWithBrokenStore(t *testing.T) {
	var logs bytes.Buffer
	r := newBrokenEngine(&logs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	gt.Equal(t, w.Code, http.StatusOK)
	gt.S(t, w.Body.String()).Contains(`"database":"unavailable"`)
}

func TestFormRating(t *testing.T) {
	gt.Equal(t, formRating("4"), any(4))
	gt.Equal(t, formRating("4.5"), any("4.5"))
	gt.Equal(t, formRating(""), any(nil))
}

func TestSortRisks(t *testing.T) {
	risks := []models.Risk{
		models.NewRisk("beta", "x", 1, 1),
		models.NewRisk("Alpha", "y", 5, 5),
		models.NewRisk("gamma", "z", 3, 5),
	}
	for i := range risks {
		risks[i].ID = uint(i + 1)
	}

	sortRisks(risks, "asset", false)
	gt.Equal(t, risks[0].Asset, "Alpha")
	gt.Equal(t, risks[2].Asset, "gamma")

	sortRisks(risks, "level", true)
	gt.Equal(t, risks[0].Asset, "Alpha")
	gt.Equal(t, risks[1].Asset, "gamma")
	gt.Equal(t, risks[2].Asset, "beta")

	sortRisks(risks, "id", false)
	gt.Equal(t, risks[0].ID, uint(1))
}

func TestSortLink(t *testing.T) {
	gt.Equal(t, sortLink("", "score", "desc", "asset"), "/?dir=asc&sort=asset")
	gt.Equal(t, sortLink("High", "asset", "asc", "asset"), "/?dir=desc&level=High&sort=asset")
}
