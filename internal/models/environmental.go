// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package models

import (
	"sort"
	"time"
)

// Reading is a single environmental observation. Sensor channels are
// nullable because station outages leave gaps in individual columns.
type Reading struct {
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Day         int       `json:"day"`
	ReadingTime string    `json:"reading_time"`
	DOY         int       `json:"doy"`
	ObservedAt  time.Time `json:"observed_at"`

	AirTemperatureDegC     *float64 `json:"air_temperature_degc,omitempty"`
	RelativeHumidityPct    *float64 `json:"relative_humidity_pct,omitempty"`
	ShortwaveRadiationWM2  *float64 `json:"shortwave_radiation_wm2,omitempty"`
	RainfallMM             *float64 `json:"rainfall_mm,omitempty"`
	TotalPrecipitationMM   *float64 `json:"total_precipitation_mm,omitempty"`
	SnowDepthCM            *float64 `json:"snow_depth_cm,omitempty"`
	WindSpeedMS            *float64 `json:"wind_speed_ms,omitempty"`
	AtmosphericPressureKPa *float64 `json:"atmospheric_pressure_kpa,omitempty"`
	SoilTemperature5CM     *float64 `json:"soil_temperature_5cm_degc,omitempty"`
	SoilTemperature10CM    *float64 `json:"soil_temperature_10cm_degc,omitempty"`
	SoilTemperature20CM    *float64 `json:"soil_temperature_20cm_degc,omitempty"`
	SoilTemperature25CM    *float64 `json:"soil_temperature_25cm_degc,omitempty"`
	SoilTemperature50CM    *float64 `json:"soil_temperature_50cm_degc,omitempty"`
}

// Metric describes one queryable sensor channel.
type Metric struct {
	Name        string `json:"name"`
	Column      string `json:"-"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// Metrics is the registry of queryable sensor channels, keyed by the
// slug used in API paths and query parameters.
var Metrics = map[string]Metric{
	"air_temp": {
		Name:        "air_temp",
		Column:      "air_temperature_degc",
		Unit:        "°C",
		Description: "Air temperature",
	},
	"humidity": {
		Name:        "humidity",
		Column:      "relative_humidity_pct",
		Unit:        "%",
		Description: "Relative humidity",
	},
	"wind_speed": {
		Name:        "wind_speed",
		Column:      "wind_speed_ms",
		Unit:        "m/s",
		Description: "Wind speed",
	},
	"snow_depth": {
		Name:        "snow_depth",
		Column:      "snow_depth_cm",
		Unit:        "cm",
		Description: "Snow depth",
	},
	"rainfall": {
		Name:        "rainfall",
		Column:      "rainfall_mm",
		Unit:        "mm",
		Description: "Rainfall",
	},
	"solar_radiation": {
		Name:        "solar_radiation",
		Column:      "shortwave_radiation_wm2",
		Unit:        "W/m²",
		Description: "Shortwave solar radiation",
	},
	"atmospheric_pressure": {
		Name:        "atmospheric_pressure",
		Column:      "atmospheric_pressure_kpa",
		Unit:        "kPa",
		Description: "Atmospheric pressure",
	},
	"soil_temp_5cm": {
		Name:        "soil_temp_5cm",
		Column:      "soil_temperature_5cm_degc",
		Unit:        "°C",
		Description: "Soil temperature at 5 cm depth",
	},
	"soil_temp_10cm": {
		Name:        "soil_temp_10cm",
		Column:      "soil_temperature_10cm_degc",
		Unit:        "°C",
		Description: "Soil temperature at 10 cm depth",
	},
	"soil_temp_20cm": {
		Name:        "soil_temp_20cm",
		Column:      "soil_temperature_20cm_degc",
		Unit:        "°C",
		Description: "Soil temperature at 20 cm depth",
	},
}

// SoilDepthColumns maps supported soil sensor depths in centimeters to
// their table columns. Depth 5 is the default.
var SoilDepthColumns = map[int]string{
	5:  "soil_temperature_5cm_degc",
	10: "soil_temperature_10cm_degc",
	20: "soil_temperature_20cm_degc",
	25: "soil_temperature_25cm_degc",
	50: "soil_temperature_50cm_degc",
}

// LookupMetric resolves a metric slug, reporting whether it exists.
func LookupMetric(name string) (Metric, bool) {
	m, ok := Metrics[name]
	return m, ok
}

// MetricNames returns the registered slugs in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(Metrics))
	for name := range Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RawPoint is a single observation of one metric.
type RawPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ChartPoint is one aggregated bucket in a chart series.
type ChartPoint struct {
	Period string   `json:"period"`
	Avg    *float64 `json:"avg"`
	Max    *float64 `json:"max"`
	Min    *float64 `json:"min"`
	StdDev *float64 `json:"stddev"`
	Total  *float64 `json:"total,omitempty"` // cumulative metrics only (rainfall)
	Count  int      `json:"count"`
}

// ChartSeries is a chart endpoint payload for a single metric.
type ChartSeries struct {
	Metric  string       `json:"metric"`
	Unit    string       `json:"unit"`
	GroupBy string       `json:"group_by"`
	Points  []ChartPoint `json:"points"`
}

// MultiMetricChart carries aligned series for several metrics.
type MultiMetricChart struct {
	GroupBy string                  `json:"group_by"`
	Series  map[string][]ChartPoint `json:"series"`
	Units   map[string]string       `json:"units"`
}

// MetricSummary holds the aggregate statistics for one metric in a
// monthly summary row.
type MetricSummary struct {
	Mean   *float64 `json:"mean"`
	Max    *float64 `json:"max"`
	Min    *float64 `json:"min"`
	StdDev *float64 `json:"stddev"`
}

// MonthlySummaryRow is one month of summarized observations.
type MonthlySummaryRow struct {
	Month         string                   `json:"month"` // YYYY-MM
	MonthName     string                   `json:"month_name"`
	Metrics       map[string]MetricSummary `json:"metrics"`
	RainfallTotal *float64                 `json:"rainfall_total"`
	Count         int                      `json:"count"`
}

// BoxplotGroup is the five-number summary for one period bucket.
type BoxplotGroup struct {
	Group    string    `json:"group"`
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers"`
	Count    int       `json:"count"`
}

// BoxplotResult is the boxplot endpoint payload.
type BoxplotResult struct {
	Metric  string         `json:"metric"`
	Unit    string         `json:"unit"`
	GroupBy string         `json:"group_by"`
	Groups  []BoxplotGroup `json:"groups"`
}

// HistogramBin is one bin of a histogram.
type HistogramBin struct {
	BinStart   float64 `json:"bin_start"`
	BinEnd     float64 `json:"bin_end"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// HistogramStats summarizes the observations behind a histogram.
type HistogramStats struct {
	TotalCount int     `json:"total_count"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// HistogramResult is the histogram endpoint payload.
type HistogramResult struct {
	Metric     string         `json:"metric"`
	Unit       string         `json:"unit"`
	Bins       []HistogramBin `json:"bins"`
	Statistics HistogramStats `json:"statistics"`
}

// PairwiseCorrelation is one metric pair's correlation and its
// significance.
type PairwiseCorrelation struct {
	Metric1     string   `json:"metric1"`
	Metric2     string   `json:"metric2"`
	Correlation float64  `json:"correlation"`
	PValue      *float64 `json:"p_value"`
	Strength    string   `json:"strength"` // "strong", "moderate", or "weak"
	SampleSize  int      `json:"sample_size"`
}

// CorrelationResult is the correlation endpoint payload.
type CorrelationResult struct {
	Method               string                `json:"method"`
	Metrics              []string              `json:"metrics"`
	CorrelationMatrix    [][]*float64          `json:"correlation_matrix"` // nil marks skipped pairs
	PairwiseCorrelations []PairwiseCorrelation `json:"pairwise_correlations"`
}
