// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// summaryMetrics is the fixed column order for the monthly summary
// query. Iterating the registry map directly would randomize the
// SELECT list between calls and defeat statement caching.
var summaryMetrics = []string{
	"air_temp",
	"humidity",
	"wind_speed",
	"snow_depth",
	"rainfall",
	"solar_radiation",
	"atmospheric_pressure",
	"soil_temp_5cm",
	"soil_temp_10cm",
	"soil_temp_20cm",
}

// MonthlySummary aggregates every registered metric per month.
func (db *DB) MonthlySummary(ctx context.Context, f Filters) ([]models.MonthlySummaryRow, error) {
	start := time.Now()

	var sel strings.Builder
	sel.WriteString("strftime(observed_at, '%Y-%m') AS month")
	for _, name := range summaryMetrics {
		col := models.Metrics[name].Column
		fmt.Fprintf(&sel, ",\n\t\t       AVG(%s), MAX(%s), MIN(%s), STDDEV_SAMP(%s)",
			col, col, col, col)
	}
	sel.WriteString(",\n\t\t       SUM(rainfall_mm), COUNT(*)")

	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT %s
		FROM environmental_data
		%s
		GROUP BY month
		ORDER BY month`, sel.String(), where)

	var out []models.MonthlySummaryRow
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("querying monthly summary: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			row, err := scanSummaryRow(rows)
			if err != nil {
				return err
			}
			out = append(out, row)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("monthly_summary", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanSummaryRow(rows *sql.Rows) (models.MonthlySummaryRow, error) {
	var (
		row           models.MonthlySummaryRow
		month         string
		aggs          = make([]sql.NullFloat64, len(summaryMetrics)*4)
		rainfallTotal sql.NullFloat64
		count         int
	)

	dest := make([]interface{}, 0, len(aggs)+3)
	dest = append(dest, &month)
	for i := range aggs {
		dest = append(dest, &aggs[i])
	}
	dest = append(dest, &rainfallTotal, &count)

	if err := rows.Scan(dest...); err != nil {
		return row, fmt.Errorf("scanning summary row: %w", err)
	}

	row.Month = month
	row.MonthName = monthName(month)
	row.Count = count
	row.RainfallTotal = nullToPtr(rainfallTotal)
	row.Metrics = make(map[string]models.MetricSummary, len(summaryMetrics))
	for i, name := range summaryMetrics {
		base := i * 4
		row.Metrics[name] = models.MetricSummary{
			Mean:   nullToPtr(aggs[base]),
			Max:    nullToPtr(aggs[base+1]),
			Min:    nullToPtr(aggs[base+2]),
			StdDev: nullToPtr(aggs[base+3]),
		}
	}
	return row, nil
}

// monthName converts a YYYY-MM label to the English month name.
func monthName(month string) string {
	parts := strings.SplitN(month, "-", 2)
	if len(parts) != 2 {
		return ""
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}
