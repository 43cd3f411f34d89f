// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"fmt"
	"strings"
	"time"
)

// Filters narrows environmental queries by time. When no filter at all
// is given, queries default to the most recent year on record.
type Filters struct {
	Year      *int
	Month     *int
	StartDate *time.Time
	EndDate   *time.Time
	GroupBy   string
	Limit     int
}

// ValidGroupBy reports whether g names a supported grouping interval.
func ValidGroupBy(g string) bool {
	switch g {
	case "hour", "day", "week", "month":
		return true
	}
	return false
}

// periodExpr returns the DuckDB expression producing the period label
// for the given grouping interval.
func periodExpr(groupBy string) string {
	switch groupBy {
	case "hour":
		return "strftime(observed_at, '%Y-%m-%d %H:00')"
	case "week":
		// ISO week, e.g. 2024-W07
		return "strftime(observed_at, '%G-W%V')"
	case "month":
		return "strftime(observed_at, '%Y-%m')"
	default:
		return "strftime(observed_at, '%Y-%m-%d')"
	}
}

// whereClause builds the WHERE fragment and its arguments. The latest
// year default applies only when no year, month, or date bound is set,
// so a month-only query spans every year on record.
func (f Filters) whereClause() (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	switch {
	case f.Year != nil:
		conds = append(conds, "year = ?")
		args = append(args, *f.Year)
	case f.Month == nil && f.StartDate == nil && f.EndDate == nil:
		conds = append(conds, "year = (SELECT MAX(year) FROM environmental_data)")
	}

	if f.Month != nil {
		conds = append(conds, "month = ?")
		args = append(args, *f.Month)
	}
	if f.StartDate != nil {
		conds = append(conds, "observed_at >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		// end date is inclusive of the whole day
		conds = append(conds, "observed_at < ?")
		args = append(args, f.EndDate.AddDate(0, 0, 1))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// notNull appends a NOT NULL condition for a metric column to an
// existing WHERE fragment.
func notNull(where, column string) string {
	cond := fmt.Sprintf("%s IS NOT NULL", column)
	if where == "" {
		return "WHERE " + cond
	}
	return where + " AND " + cond
}
