package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"grc-risk/internal/aggregate"
	"grc-risk/internal/apperr"
	"grc-risk/internal/models"
	"grc-risk/internal/scoring"

	"github.com/gin-gonic/gin"
)

var dashboardColumns = []string{"id", "asset", "threat", "likelihood", "impact", "score", "level"}

type formValues struct {
	Asset      string
	Threat     string
	Likelihood string
	Impact     string
}

// Dashboard renders stats, the filtered table and the full heatmap.
func (h *Handler) Dashboard(c *gin.Context) {
	h.renderDashboard(c, http.StatusOK, formValues{Likelihood: "1", Impact: "1"}, "")
}

func (h *Handler) renderDashboard(c *gin.Context, status int, form formValues, errMsg string) {
	ctx := c.Request.Context()
	level := c.Query("level")
	sortKey := c.DefaultQuery("sort", "score")
	dir := c.DefaultQuery("dir", "desc")

	all, err := h.store.AllRisks(ctx)
	if err != nil {
		apperr.Handle(ctx, err)
		c.String(http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	listed, err := h.store.ListRisks(ctx, level)
	if err != nil {
		apperr.Handle(ctx, err)
		c.String(http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	// the store order is the default; only re-sort on an explicit column
	if c.Query("sort") != "" {
		sortRisks(listed, sortKey, dir == "desc")
	}

	h.metrics.SetStored(len(all))

	render(c, status, "dashboard.html", gin.H{
		"stats":   aggregate.ComputeStats(all),
		"grid":    aggregate.FullGrid(aggregate.ComputeHeatmap(all)),
		"risks":   models.Views(listed),
		"levels":  scoring.Levels,
		"level":   level,
		"columns": dashboardColumns,
		"sort":    sortKey,
		"dir":     dir,
		"form":    form,
		"error":   errMsg,
	})
}

// CreateRiskForm handles the dashboard form post.
func (h *Handler) CreateRiskForm(c *gin.Context) {
	form := formValues{
		Asset:      strings.TrimSpace(c.PostForm("asset")),
		Threat:     strings.TrimSpace(c.PostForm("threat")),
		Likelihood: strings.TrimSpace(c.PostForm("likelihood")),
		Impact:     strings.TrimSpace(c.PostForm("impact")),
	}

	in := models.RiskInput{
		Asset:      form.Asset,
		Threat:     form.Threat,
		Likelihood: formRating(form.Likelihood),
		Impact:     formRating(form.Impact),
	}

	risk, err := in.Validate()
	if err != nil {
		h.renderDashboard(c, http.StatusBadRequest, form, err.Error())
		return
	}

	if err := h.store.CreateRisk(c.Request.Context(), &risk); err != nil {
		apperr.Handle(c.Request.Context(), err)
		h.renderDashboard(c, http.StatusInternalServerError, form, "Failed to insert risk")
		return
	}
	h.metrics.RiskAssessed(risk.Level)

	flash(c, fmt.Sprintf("Risk added successfully! (Score: %d, Level: %s)", risk.Score, risk.Level))
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) DeleteRiskForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.String(http.StatusNotFound, msgNotFound)
		return
	}

	if err := h.store.DeleteRisk(c.Request.Context(), id); err != nil {
		if apperr.IsNotFound(err) {
			c.String(http.StatusNotFound, msgNotFound)
			return
		}
		apperr.Handle(c.Request.Context(), err)
		c.String(http.StatusInternalServerError, "Failed to delete risk")
		return
	}
	h.metrics.RiskDeleted()

	flash(c, fmt.Sprintf("Risk #%d deleted", id))
	c.Redirect(http.StatusFound, "/")
}

// formRating keeps unparsable values as strings so validation reports them
// as non-integers.
func formRating(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if s == "" {
		return nil
	}
	return s
}

var levelRank = map[scoring.Level]int{
	scoring.LevelLow:      1,
	scoring.LevelMedium:   2,
	scoring.LevelHigh:     3,
	scoring.LevelCritical: 4,
}

func sortRisks(risks []models.Risk, key string, desc bool) {
	less := func(a, b models.Risk) bool {
		switch key {
		case "asset":
			return strings.ToLower(a.Asset) < strings.ToLower(b.Asset)
		case "threat":
			return strings.ToLower(a.Threat) < strings.ToLower(b.Threat)
		case "likelihood":
			return a.Likelihood < b.Likelihood
		case "impact":
			return a.Impact < b.Impact
		case "level":
			return levelRank[a.Level] < levelRank[b.Level]
		case "id":
			return a.ID < b.ID
		default:
			return a.Score < b.Score
		}
	}

	sort.SliceStable(risks, func(i, j int) bool {
		if desc {
			return less(risks[j], risks[i])
		}
		return less(risks[i], risks[j])
	})
}
