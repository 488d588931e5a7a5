package aggregate

import (
	"fmt"
	"math"
	"sort"

	"grc-risk/internal/models"
	"grc-risk/internal/scoring"
)

type Stats struct {
	TotalRisks        int     `json:"total_risks"`
	HighCriticalCount int     `json:"high_critical_count"`
	AverageScore      float64 `json:"average_score"`
	MaxScore          int     `json:"max_score"`
	MinScore          int     `json:"min_score"`
}

// Cell is one populated likelihood x impact bucket.
type Cell struct {
	Count  int           `json:"count"`
	Assets []string      `json:"assets"`
	Level  scoring.Level `json:"level"`
}

// Heatmap is keyed by "likelihood-impact", e.g. "5-5". Empty cells are absent.
type Heatmap map[string]Cell

// GridCell is a Cell placed on the full 5x5 matrix.
type GridCell struct {
	Likelihood int
	Impact     int
	Score      int
	Cell
}

func CellKey(likelihood, impact int) string {
	return fmt.Sprintf("%d-%d", likelihood, impact)
}

// ComputeStats never returns NaN; an empty input yields the zero Stats.
func ComputeStats(risks []models.Risk) Stats {
	var st Stats
	if len(risks) == 0 {
		return st
	}

	sum := 0
	st.MinScore = risks[0].Score
	st.MaxScore = risks[0].Score
	for _, r := range risks {
		sum += r.Score
		if r.Score > st.MaxScore {
			st.MaxScore = r.Score
		}
		if r.Score < st.MinScore {
			st.MinScore = r.Score
		}
		if scoring.IsHighOrCritical(r.Level) {
			st.HighCriticalCount++
		}
	}

	st.TotalRisks = len(risks)
	st.AverageScore = round2(float64(sum) / float64(len(risks)))
	return st
}

// ComputeHeatmap groups records by (likelihood, impact). Assets are listed
// per record in ascending id order; duplicates are kept. A cell's level is
// derived from its own coordinates, not from the stored record levels.
func ComputeHeatmap(risks []models.Risk) Heatmap {
	sorted := make([]models.Risk, len(risks))
	copy(sorted, risks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	hm := Heatmap{}
	for _, r := range sorted {
		key := CellKey(r.Likelihood, r.Impact)
		cell, ok := hm[key]
		if !ok {
			cell = Cell{
				Assets: []string{},
				Level:  scoring.ClassifyLevel(scoring.ComputeScore(r.Likelihood, r.Impact)),
			}
		}
		cell.Count++
		cell.Assets = append(cell.Assets, r.Asset)
		hm[key] = cell
	}
	return hm
}

// FullGrid expands a heatmap to every cell of the matrix, rows by likelihood
// and columns by impact, both ascending.
func FullGrid(hm Heatmap) [][]GridCell {
	grid := make([][]GridCell, 0, scoring.MaxRating)
	for l := scoring.MinRating; l <= scoring.MaxRating; l++ {
		row := make([]GridCell, 0, scoring.MaxRating)
		for i := scoring.MinRating; i <= scoring.MaxRating; i++ {
			score := scoring.ComputeScore(l, i)
			cell, ok := hm[CellKey(l, i)]
			if !ok {
				cell = Cell{Assets: []string{}}
			}
			cell.Level = scoring.ClassifyLevel(score)
			row = append(row, GridCell{
				Likelihood: l,
				Impact:     i,
				Score:      score,
				Cell:       cell,
			})
		}
		grid = append(grid, row)
	}
	return grid
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
