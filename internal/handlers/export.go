package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"grc-risk/internal/apperr"
	"grc-risk/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
)

var exportHeader = []string{"ID", "Asset", "Threat", "Likelihood", "Impact", "Score", "Level", "Mitigation Hint"}

// ExportRisks handles GET /risks/export. It writes the same rows as
// GET /risks, in the same order, as a CSV attachment.
func (h *Handler) ExportRisks(c *gin.Context) {
	ctx := c.Request.Context()

	risks, err := h.store.ListRisks(ctx, c.Query("level"))
	if err != nil {
		fail(c, err, "Failed to fetch risks")
		return
	}
	if len(risks) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No risks to export"})
		return
	}

	filename := fmt.Sprintf("risks-export-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename=`+filename)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := writeCSV(c.Writer, models.Views(risks)); err != nil {
		// headers are already sent, so the client only sees a truncated file
		apperr.Handle(ctx, err)
	}
}

func writeCSV(w io.Writer, views []models.RiskView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return goerr.Wrap(err, "failed to write csv header")
	}
	for _, v := range views {
		row := []string{
			strconv.FormatUint(uint64(v.ID), 10),
			v.Asset,
			v.Threat,
			strconv.Itoa(v.Likelihood),
			strconv.Itoa(v.Impact),
			strconv.Itoa(v.Score),
			string(v.Level),
			v.MitigationHint,
		}
		if err := cw.Write(row); err != nil {
			return goerr.Wrap(err, "failed to write csv row", goerr.V("id", v.ID))
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush csv")
	}
	return nil
}
