package handlers

import (
	"context"
	"net/http"
	"strconv"

	"grc-risk/internal/aggregate"
	"grc-risk/internal/apperr"
	"grc-risk/internal/metrics"
	"grc-risk/internal/models"

	"github.com/gin-gonic/gin"
)

// RiskStore is the persistence the handlers depend on.
type RiskStore interface {
	CreateRisk(ctx context.Context, risk *models.Risk) error
	ListRisks(ctx context.Context, level string) ([]models.Risk, error)
	AllRisks(ctx context.Context) ([]models.Risk, error)
	GetRisk(ctx context.Context, id uint) (models.Risk, error)
	DeleteRisk(ctx context.Context, id uint) error
	Stats(ctx context.Context) (aggregate.Stats, error)
	Heatmap(ctx context.Context) (aggregate.Heatmap, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	store   RiskStore
	metrics *metrics.Metrics
}

func New(store RiskStore, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.New()
	}
	return &Handler{store: store, metrics: m}
}

const msgNotFound = "Risk not found"

// fail writes the JSON error for err. Validation messages are shown to the
// client as is; storage failures are logged and replaced by publicMsg.
func fail(c *gin.Context, err error, publicMsg string) {
	switch status := apperr.Status(err); status {
	case http.StatusBadRequest:
		c.JSON(status, gin.H{"error": err.Error()})
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": msgNotFound})
	default:
		apperr.Handle(c.Request.Context(), err)
		c.JSON(status, gin.H{"error": publicMsg})
	}
}

// parseID rejects anything that is not a positive integer.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
