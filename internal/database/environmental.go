// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// InsertReadings stores a batch of observations in one transaction.
func (db *DB) InsertReadings(ctx context.Context, readings []models.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	start := time.Now()

	err := db.withReconnect(ctx, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO environmental_data
				(year, month, day, reading_time, doy, observed_at,
				 air_temperature_degc, relative_humidity_pct,
				 shortwave_radiation_wm2, rainfall_mm, total_precipitation_mm,
				 snow_depth_cm, wind_speed_ms, atmospheric_pressure_kpa,
				 soil_temperature_5cm_degc, soil_temperature_10cm_degc,
				 soil_temperature_20cm_degc, soil_temperature_25cm_degc,
				 soil_temperature_50cm_degc)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i := range readings {
			r := &readings[i]
			_, err := stmt.ExecContext(ctx,
				r.Year, r.Month, r.Day, r.ReadingTime, r.DOY, r.ObservedAt,
				r.AirTemperatureDegC, r.RelativeHumidityPct,
				r.ShortwaveRadiationWM2, r.RainfallMM, r.TotalPrecipitationMM,
				r.SnowDepthCM, r.WindSpeedMS, r.AtmosphericPressureKPa,
				r.SoilTemperature5CM, r.SoilTemperature10CM,
				r.SoilTemperature20CM, r.SoilTemperature25CM,
				r.SoilTemperature50CM)
			if err != nil {
				return fmt.Errorf("inserting reading: %w", err)
			}
		}
		return tx.Commit()
	})

	metrics.RecordDBQuery("insert", "environmental_data", time.Since(start), err)
	return err
}

// ChartSeries aggregates one metric into period buckets. Cumulative
// metrics (rainfall) additionally carry a per-bucket total.
func (db *DB) ChartSeries(ctx context.Context, metric models.Metric, cumulative bool, f Filters) ([]models.ChartPoint, error) {
	start := time.Now()

	where, args := f.whereClause()
	where = notNull(where, metric.Column)

	totalExpr := "NULL"
	if cumulative {
		totalExpr = fmt.Sprintf("SUM(%s)", metric.Column)
	}

	query := fmt.Sprintf(`
		SELECT %s AS period,
		       AVG(%s), MAX(%s), MIN(%s), STDDEV_SAMP(%s),
		       %s, COUNT(*)
		FROM environmental_data
		%s
		GROUP BY period
		ORDER BY period`,
		periodExpr(f.GroupBy),
		metric.Column, metric.Column, metric.Column, metric.Column,
		totalExpr, where)

	var points []models.ChartPoint
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("querying chart series for %s: %w", metric.Name, err)
		}
		defer rows.Close()

		points = points[:0]
		for rows.Next() {
			var (
				p                         models.ChartPoint
				avg, maxV, minV, sd, total sql.NullFloat64
			)
			if err := rows.Scan(&p.Period, &avg, &maxV, &minV, &sd, &total, &p.Count); err != nil {
				return fmt.Errorf("scanning chart row: %w", err)
			}
			p.Avg = nullToPtr(avg)
			p.Max = nullToPtr(maxV)
			p.Min = nullToPtr(minV)
			p.StdDev = nullToPtr(sd)
			if cumulative {
				p.Total = nullToPtr(total)
			}
			points = append(points, p)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("chart_series", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// RawReadings returns individual observations of one metric matching
// the filters, in observation order, capped at f.Limit rows. Rows where
// the metric was not recorded are excluded.
func (db *DB) RawReadings(ctx context.Context, metric models.Metric, f Filters) ([]models.RawPoint, error) {
	start := time.Now()

	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT observed_at, %s
		FROM environmental_data
		%s
		ORDER BY observed_at
		LIMIT ?`, metric.Column, notNull(where, metric.Column))
	args = append(args, f.Limit)

	var points []models.RawPoint
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("querying raw readings: %w", err)
		}
		defer rows.Close()

		points = points[:0]
		for rows.Next() {
			var p models.RawPoint
			if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
				return fmt.Errorf("scanning raw reading: %w", err)
			}
			points = append(points, p)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("raw_readings", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Latest returns the most recent observation on record.
func (db *DB) Latest(ctx context.Context) (*models.Reading, error) {
	start := time.Now()

	const query = `
		SELECT year, month, day, reading_time, doy, observed_at,
		       air_temperature_degc, relative_humidity_pct,
		       shortwave_radiation_wm2, rainfall_mm, total_precipitation_mm,
		       snow_depth_cm, wind_speed_ms, atmospheric_pressure_kpa,
		       soil_temperature_5cm_degc, soil_temperature_10cm_degc,
		       soil_temperature_20cm_degc, soil_temperature_25cm_degc,
		       soil_temperature_50cm_degc
		FROM environmental_data
		ORDER BY observed_at DESC
		LIMIT 1`

	var reading models.Reading
	err := db.withReconnect(ctx, func() error {
		stmt, err := db.getOrPrepare(ctx, query)
		if err != nil {
			return err
		}
		r, err := scanReading(stmt.QueryRowContext(ctx))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoData
			}
			return err
		}
		reading = r
		return nil
	})

	metrics.RecordDBQuery("latest", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// Years returns the distinct years on record, ascending.
func (db *DB) Years(ctx context.Context) ([]int, error) {
	start := time.Now()

	var years []int
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT DISTINCT year FROM environmental_data ORDER BY year`)
		if err != nil {
			return fmt.Errorf("querying years: %w", err)
		}
		defer rows.Close()

		years = years[:0]
		for rows.Next() {
			var y int
			if err := rows.Scan(&y); err != nil {
				return fmt.Errorf("scanning year: %w", err)
			}
			years = append(years, y)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("years", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return years, nil
}

// MetricValues returns the non-null values of one metric column
// matching the filters, in observation order.
func (db *DB) MetricValues(ctx context.Context, column string, f Filters) ([]float64, error) {
	start := time.Now()

	where, args := f.whereClause()
	where = notNull(where, column)
	query := fmt.Sprintf(`
		SELECT %s FROM environmental_data
		%s
		ORDER BY observed_at`, column, where)

	var values []float64
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("querying metric values for %s: %w", column, err)
		}
		defer rows.Close()

		values = values[:0]
		for rows.Next() {
			var v float64
			if err := rows.Scan(&v); err != nil {
				return fmt.Errorf("scanning value: %w", err)
			}
			values = append(values, v)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("metric_values", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// GroupedValues is a period bucket with its raw metric values.
type GroupedValues struct {
	Group  string
	Values []float64
}

// GroupedMetricValues returns raw metric values bucketed by period,
// ordered by period label.
func (db *DB) GroupedMetricValues(ctx context.Context, column string, f Filters) ([]GroupedValues, error) {
	start := time.Now()

	where, args := f.whereClause()
	where = notNull(where, column)
	query := fmt.Sprintf(`
		SELECT %s AS period, %s
		FROM environmental_data
		%s
		ORDER BY period, observed_at`, periodExpr(f.GroupBy), column, where)

	var groups []GroupedValues
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("querying grouped values for %s: %w", column, err)
		}
		defer rows.Close()

		groups = groups[:0]
		for rows.Next() {
			var (
				period string
				v      float64
			)
			if err := rows.Scan(&period, &v); err != nil {
				return fmt.Errorf("scanning grouped value: %w", err)
			}
			if n := len(groups); n == 0 || groups[n-1].Group != period {
				groups = append(groups, GroupedValues{Group: period})
			}
			g := &groups[len(groups)-1]
			g.Values = append(g.Values, v)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("grouped_values", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// MultiMetricRows returns rows of the given metric columns matching the
// filters. Missing readings are reported as NaN so callers can apply
// pairwise deletion.
func (db *DB) MultiMetricRows(ctx context.Context, columns []string, f Filters) ([][]float64, error) {
	start := time.Now()

	where, args := f.whereClause()
	cols := ""
	for i, c := range columns {
		if i > 0 {
			cols += ", "
		}
		cols += c
	}
	query := fmt.Sprintf(`
		SELECT %s FROM environmental_data
		%s
		ORDER BY observed_at`, cols, where)

	var out [][]float64
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("querying multi-metric rows: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		scan := make([]sql.NullFloat64, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range scan {
			dest[i] = &scan[i]
		}
		for rows.Next() {
			if err := rows.Scan(dest...); err != nil {
				return fmt.Errorf("scanning multi-metric row: %w", err)
			}
			row := make([]float64, len(columns))
			for i, v := range scan {
				if v.Valid {
					row[i] = v.Float64
				} else {
					row[i] = math.NaN()
				}
			}
			out = append(out, row)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("multi_metric_rows", "environmental_data", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner lets scanReading work with both *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row rowScanner) (models.Reading, error) {
	var (
		r  models.Reading
		ns [13]sql.NullFloat64
	)
	err := row.Scan(
		&r.Year, &r.Month, &r.Day, &r.ReadingTime, &r.DOY, &r.ObservedAt,
		&ns[0], &ns[1], &ns[2], &ns[3], &ns[4], &ns[5], &ns[6], &ns[7],
		&ns[8], &ns[9], &ns[10], &ns[11], &ns[12],
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning reading: %w", err)
	}

	r.AirTemperatureDegC = nullToPtr(ns[0])
	r.RelativeHumidityPct = nullToPtr(ns[1])
	r.ShortwaveRadiationWM2 = nullToPtr(ns[2])
	r.RainfallMM = nullToPtr(ns[3])
	r.TotalPrecipitationMM = nullToPtr(ns[4])
	r.SnowDepthCM = nullToPtr(ns[5])
	r.WindSpeedMS = nullToPtr(ns[6])
	r.AtmosphericPressureKPa = nullToPtr(ns[7])
	r.SoilTemperature5CM = nullToPtr(ns[8])
	r.SoilTemperature10CM = nullToPtr(ns[9])
	r.SoilTemperature20CM = nullToPtr(ns[10])
	r.SoilTemperature25CM = nullToPtr(ns[11])
	r.SoilTemperature50CM = nullToPtr(ns[12])
	return r, nil
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
