package service

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/recursions-backend-go/internal/models"
)

// SummarizeLocations aggregates per-location results of a run
func SummarizeLocations(locations []models.RecursionLocation) *models.RunSummary {
	visits := make([]float64, len(locations))
	residence := make([]float64, len(locations))
	for i, loc := range locations {
		visits[i] = float64(loc.Visits)
		residence[i] = loc.ResidenceTime
	}
	return summarize(visits, residence)
}

// SummarizeResponse aggregates the per-location results of a computation
func SummarizeResponse(resp *models.RecursionResponse) *models.RunSummary {
	visits := make([]float64, len(resp.Revisits))
	for i, v := range resp.Revisits {
		visits[i] = float64(v)
	}
	return summarize(visits, resp.ResidenceTime)
}

func summarize(visits, residence []float64) *models.RunSummary {
	sum := &models.RunSummary{Locations: len(visits)}
	if len(visits) == 0 {
		return sum
	}

	sum.TotalVisits = int(floats.Sum(visits))
	sum.MeanVisits, sum.StdVisits = meanStd(visits)
	sum.MaxVisits = int(floats.Max(visits))
	sum.MeanResidenceTime, sum.StdResidenceTime = meanStd(residence)
	sum.MaxResidenceTime = floats.Max(residence)

	for _, v := range visits {
		if v > 0 {
			sum.VisitedLocations++
		}
	}
	return sum
}

// meanStd returns a zero deviation for a single value instead of NaN.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
