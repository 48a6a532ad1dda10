// Package scoring derives the denormalized inspection metrics from the current
// item states. Recompute is a pure function; callers persist the result inside
// the same transaction that wrote the items.
package scoring

import (
	"math"

	"github.com/hotelaria/opshub/internal/models"
)

// AreaScore carries the recomputed quality score for one area.
type AreaScore struct {
	AreaID uint64  `json:"area_id"`
	Score  float64 `json:"score"`
}

// Metrics is the full derived metric set for one inspection.
type Metrics struct {
	TotalAreas           int         `json:"total_areas"`
	TotalItems           int         `json:"total_items"`
	ItemsCumple          int         `json:"items_cumple"`
	ItemsNoCumple        int         `json:"items_no_cumple"`
	ItemsNA              int         `json:"items_na"`
	ItemsPending         int         `json:"items_pending"`
	CoveragePercentage   int         `json:"coverage_percentage"`
	CompliancePercentage int         `json:"compliance_percentage"`
	AverageScore         float64     `json:"average_score"`
	AreaScores           []AreaScore `json:"area_scores"`
}

// Recompute derives Metrics from the areas and their items.
//
// Coverage counts every evaluated item regardless of outcome. Compliance
// excludes N/A from the denominator: not applicable is not failed. An area
// with no "Cumple" items scores 0, which pulls the overall average down;
// that penalty is intentional.
func Recompute(areas []models.InspectionArea) Metrics {
	m := Metrics{
		TotalAreas: len(areas),
		AreaScores: make([]AreaScore, 0, len(areas)),
	}

	var areaScoreSum float64
	for _, area := range areas {
		var cumpleCount int
		var cumpleSum float64

		for _, item := range area.Items {
			m.TotalItems++
			switch item.CumplimientoValor {
			case models.ComplianceCumple:
				m.ItemsCumple++
				cumpleCount++
				cumpleSum += item.CalifValor
			case models.ComplianceNoCumple:
				m.ItemsNoCumple++
			case models.ComplianceNA:
				m.ItemsNA++
			default:
				m.ItemsPending++
			}
		}

		var score float64
		if cumpleCount > 0 {
			score = cumpleSum / float64(cumpleCount)
		}
		areaScoreSum += score
		m.AreaScores = append(m.AreaScores, AreaScore{AreaID: area.ID, Score: score})
	}

	evaluated := m.ItemsCumple + m.ItemsNoCumple + m.ItemsNA
	if m.TotalItems > 0 {
		m.CoveragePercentage = roundPct(evaluated, m.TotalItems)
	}

	applicableEvaluated := m.ItemsCumple + m.ItemsNoCumple
	if applicableEvaluated > 0 {
		m.CompliancePercentage = roundPct(m.ItemsCumple, applicableEvaluated)
	}

	if m.TotalAreas > 0 {
		m.AverageScore = round2(areaScoreSum / float64(m.TotalAreas))
	}

	return m
}

func roundPct(part, whole int) int {
	return int(math.Round(100 * float64(part) / float64(whole)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
