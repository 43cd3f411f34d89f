// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/trentfarmdata/farmdata/internal/models"
)

// minPairObservations is the smallest sample a pairwise correlation is
// computed from. Pairs with fewer complete observations are skipped.
const minPairObservations = 3

// ValidMethod reports whether m names a supported correlation method.
func ValidMethod(m string) bool {
	switch m {
	case "pearson", "spearman", "kendall":
		return true
	}
	return false
}

// Correlate computes the correlation matrix and pairwise correlations
// for the named metrics. rows holds one observation per row with NaN
// marking missing readings; each pair uses only its complete rows.
func Correlate(method string, metricNames []string, rows [][]float64) (models.CorrelationResult, error) {
	if !ValidMethod(method) {
		return models.CorrelationResult{}, fmt.Errorf("unsupported correlation method %q", method)
	}

	n := len(metricNames)
	result := models.CorrelationResult{
		Method:               method,
		Metrics:              metricNames,
		CorrelationMatrix:    make([][]*float64, n),
		PairwiseCorrelations: []models.PairwiseCorrelation{},
	}
	one := 1.0
	for i := range result.CorrelationMatrix {
		result.CorrelationMatrix[i] = make([]*float64, n)
		result.CorrelationMatrix[i][i] = &one
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := completePairs(rows, i, j)
			if len(x) < minPairObservations {
				continue
			}

			r := correlate(method, x, y)
			if math.IsNaN(r) {
				// zero variance in one of the series
				continue
			}
			rv := r
			result.CorrelationMatrix[i][j] = &rv
			result.CorrelationMatrix[j][i] = &rv

			result.PairwiseCorrelations = append(result.PairwiseCorrelations,
				models.PairwiseCorrelation{
					Metric1:     metricNames[i],
					Metric2:     metricNames[j],
					Correlation: r,
					PValue:      pValue(method, r, len(x)),
					Strength:    strength(r),
					SampleSize:  len(x),
				})
		}
	}
	return result, nil
}

// completePairs extracts the rows where both columns are present.
func completePairs(rows [][]float64, i, j int) (x, y []float64) {
	for _, row := range rows {
		if math.IsNaN(row[i]) || math.IsNaN(row[j]) {
			continue
		}
		x = append(x, row[i])
		y = append(y, row[j])
	}
	return x, y
}

func correlate(method string, x, y []float64) float64 {
	switch method {
	case "spearman":
		return stat.Correlation(ranks(x), ranks(y), nil)
	case "kendall":
		return stat.Kendall(x, y, nil)
	default:
		return stat.Correlation(x, y, nil)
	}
}

// ranks converts values to fractional ranks, averaging ties.
func ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// average rank across the tie run, 1-based
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// pValue computes the two-sided significance of a correlation, or nil
// when it is not defined for the sample.
func pValue(method string, r float64, n int) *float64 {
	if math.IsNaN(r) {
		return nil
	}

	var p float64
	switch method {
	case "kendall":
		// normal approximation for Kendall's tau
		if n < 2 {
			return nil
		}
		z := 3 * r * math.Sqrt(float64(n*(n-1))) /
			math.Sqrt(float64(2*(2*n+5)))
		normal := distuv.UnitNormal
		p = 2 * normal.Survival(math.Abs(z))
	default:
		// t-test on the correlation coefficient
		if n <= 2 {
			return nil
		}
		if math.Abs(r) >= 1 {
			p = 0
			return &p
		}
		t := r * math.Sqrt(float64(n-2)/(1-r*r))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
		p = 2 * dist.Survival(math.Abs(t))
	}

	if p > 1 {
		p = 1
	}
	return &p
}

// strength buckets a correlation coefficient by magnitude.
func strength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.7:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	default:
		return "weak"
	}
}
