package handlers

import (
	"net/http"

	"grc-risk/internal/models"
	"grc-risk/internal/scoring"

	"github.com/gin-gonic/gin"
)

// AssessRisk handles POST /assess-risk.
func (h *Handler) AssessRisk(c *gin.Context) {
	var in models.RiskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	risk, err := in.Validate()
	if err != nil {
		fail(c, err, "")
		return
	}

	if err := h.store.CreateRisk(c.Request.Context(), &risk); err != nil {
		fail(c, err, "Failed to insert risk")
		return
	}
	h.metrics.RiskAssessed(risk.Level)

	c.JSON(http.StatusCreated, risk.View())
}

// PreviewRisk scores a likelihood/impact pair without storing anything.
func (h *Handler) PreviewRisk(c *gin.Context) {
	in := models.RiskInput{
		Asset:      "preview",
		Threat:     "preview",
		Likelihood: formRating(c.Query("likelihood")),
		Impact:     formRating(c.Query("impact")),
	}
	risk, err := in.Validate()
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, scoring.Assess(risk.Likelihood, risk.Impact))
}

func (h *Handler) ListRisks(c *gin.Context) {
	risks, err := h.store.ListRisks(c.Request.Context(), c.Query("level"))
	if err != nil {
		fail(c, err, "Failed to fetch risks")
		return
	}
	c.JSON(http.StatusOK, models.Views(risks))
}

func (h *Handler) GetRisk(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}

	risk, err := h.store.GetRisk(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to fetch risk")
		return
	}
	c.JSON(http.StatusOK, risk.View())
}

func (h *Handler) DeleteRisk(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}

	if err := h.store.DeleteRisk(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to delete risk")
		return
	}
	h.metrics.RiskDeleted()

	c.JSON(http.StatusOK, gin.H{"message": "Risk deleted successfully"})
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.store.Stats(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to fetch statistics")
		return
	}
	h.metrics.SetStored(st.TotalRisks)

	c.JSON(http.StatusOK, st)
}

func (h *Handler) Heatmap(c *gin.Context) {
	hm, err := h.store.Heatmap(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to fetch heatmap data")
		return
	}
	c.JSON(http.StatusOK, hm)
}

// Health is a liveness check; it answers 200 even if the database is down.
func (h *Handler) Health(c *gin.Context) {
	dbStatus := "ok"
	if err := h.store.Ping(c.Request.Context()); err != nil {
		dbStatus = "unavailable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "Server is running",
		"database": dbStatus,
	})
}
