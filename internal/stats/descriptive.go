// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package stats implements the statistical computations behind the
// boxplot, histogram, and correlation endpoints.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/trentfarmdata/farmdata/internal/models"
)

// ErrInsufficientData indicates too few observations for a computation.
var ErrInsufficientData = errors.New("insufficient observations")

// whiskerFactor is the Tukey fence multiplier on the interquartile range.
const whiskerFactor = 1.5

// Boxplot computes the five-number summary with Tukey whiskers. Values
// beyond the whiskers are reported as outliers.
func Boxplot(group string, values []float64) (models.BoxplotGroup, error) {
	if len(values) == 0 {
		return models.BoxplotGroup{}, ErrInsufficientData
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	median := stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	iqr := q3 - q1
	lowerFence := q1 - whiskerFactor*iqr
	upperFence := q3 + whiskerFactor*iqr

	// whiskers run to the most extreme values inside the fences
	whiskerMin := sorted[len(sorted)-1]
	whiskerMax := sorted[0]
	outliers := []float64{}
	for _, v := range sorted {
		if v < lowerFence || v > upperFence {
			outliers = append(outliers, v)
			continue
		}
		if v < whiskerMin {
			whiskerMin = v
		}
		if v > whiskerMax {
			whiskerMax = v
		}
	}
	if len(outliers) == len(sorted) {
		whiskerMin = sorted[0]
		whiskerMax = sorted[len(sorted)-1]
	}

	return models.BoxplotGroup{
		Group:    group,
		Min:      whiskerMin,
		Q1:       q1,
		Median:   median,
		Q3:       q3,
		Max:      whiskerMax,
		Outliers: outliers,
		Count:    len(values),
	}, nil
}

// Histogram bins values into equal-width bins over [min, max]. The
// final bin is closed on both ends so the maximum lands in it.
func Histogram(values []float64, bins int) (models.HistogramResult, error) {
	if len(values) == 0 {
		return models.HistogramResult{}, ErrInsufficientData
	}
	if bins < 1 {
		bins = 1
	}

	minV, maxV := values[0], values[0]
	var sum float64
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}

	width := (maxV - minV) / float64(bins)
	result := models.HistogramResult{
		Bins: make([]models.HistogramBin, bins),
		Statistics: models.HistogramStats{
			TotalCount: len(values),
			Mean:       sum / float64(len(values)),
			Min:        minV,
			Max:        maxV,
		},
	}

	for i := 0; i < bins; i++ {
		result.Bins[i] = models.HistogramBin{
			BinStart: minV + float64(i)*width,
			BinEnd:   minV + float64(i+1)*width,
		}
	}
	result.Bins[bins-1].BinEnd = maxV

	if width == 0 {
		result.Bins[0].Count = len(values)
		result.Bins[0].Percentage = 100
		return result, nil
	}

	for _, v := range values {
		idx := int((v - minV) / width)
		if idx >= bins {
			idx = bins - 1
		}
		result.Bins[idx].Count++
	}
	for i := range result.Bins {
		result.Bins[i].Percentage = float64(result.Bins[i].Count) / float64(len(values)) * 100
	}
	return result, nil
}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation, or NaN when fewer than
// two values are given.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}
