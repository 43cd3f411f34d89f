// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"strings"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func datePtr(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestValidGroupBy(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"hour", true},
		{"day", true},
		{"week", true},
		{"month", true},
		{"year", false},
		{"", false},
		{"Day", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidGroupBy(tt.input); got != tt.want {
				t.Errorf("ValidGroupBy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPeriodExpr(t *testing.T) {
	tests := []struct {
		groupBy string
		want    string
	}{
		{"hour", "%Y-%m-%d %H:00"},
		{"day", "%Y-%m-%d"},
		{"week", "%G-W%V"},
		{"month", "%Y-%m"},
		{"", "%Y-%m-%d"},
	}

	for _, tt := range tests {
		t.Run(tt.groupBy, func(t *testing.T) {
			got := periodExpr(tt.groupBy)
			if !strings.Contains(got, tt.want) {
				t.Errorf("periodExpr(%q) = %q, want format %q", tt.groupBy, got, tt.want)
			}
		})
	}
}

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name       string
		filters    Filters
		wantWhere  []string
		wantAbsent []string
		wantArgs   int
	}{
		{
			name:      "no filters defaults to latest year",
			filters:   Filters{},
			wantWhere: []string{"year = (SELECT MAX(year) FROM environmental_data)"},
			wantArgs:  0,
		},
		{
			name:      "explicit year",
			filters:   Filters{Year: intPtr(2023)},
			wantWhere: []string{"year = ?"},
			wantArgs:  1,
		},
		{
			name:      "year and month",
			filters:   Filters{Year: intPtr(2023), Month: intPtr(6)},
			wantWhere: []string{"year = ?", "month = ?"},
			wantArgs:  2,
		},
		{
			name: "date range skips latest year default",
			filters: Filters{
				StartDate: datePtr("2023-01-01"),
				EndDate:   datePtr("2023-06-30"),
			},
			wantWhere: []string{"observed_at >= ?", "observed_at < ?"},
			wantArgs:  2,
		},
		{
			name:       "month alone spans all years",
			filters:    Filters{Month: intPtr(3)},
			wantWhere:  []string{"month = ?"},
			wantAbsent: []string{"MAX(year)"},
			wantArgs:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filters.whereClause()
			for _, frag := range tt.wantWhere {
				if !strings.Contains(where, frag) {
					t.Errorf("whereClause() = %q, missing %q", where, frag)
				}
			}
			for _, frag := range tt.wantAbsent {
				if strings.Contains(where, frag) {
					t.Errorf("whereClause() = %q, must not contain %q", where, frag)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("whereClause() returned %d args, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestWhereClauseEndDateInclusive(t *testing.T) {
	end := datePtr("2023-06-30")
	f := Filters{EndDate: end}
	_, args := f.whereClause()
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	got, ok := args[0].(time.Time)
	if !ok {
		t.Fatalf("arg has type %T, want time.Time", args[0])
	}
	want := end.AddDate(0, 0, 1)
	if !got.Equal(want) {
		t.Errorf("end bound = %v, want %v (exclusive next day)", got, want)
	}
}

func TestNotNull(t *testing.T) {
	tests := []struct {
		name   string
		where  string
		column string
		want   string
	}{
		{
			name:   "empty where",
			where:  "",
			column: "rainfall_mm",
			want:   "WHERE rainfall_mm IS NOT NULL",
		},
		{
			name:   "appends to existing",
			where:  "WHERE year = ?",
			column: "rainfall_mm",
			want:   "WHERE year = ? AND rainfall_mm IS NOT NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notNull(tt.where, tt.column); got != tt.want {
				t.Errorf("notNull() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2023-01", "January"},
		{"2023-12", "December"},
		{"2023-06", "June"},
		{"2023-13", ""},
		{"garbage", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := monthName(tt.input); got != tt.want {
				t.Errorf("monthName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad connection", errString("driver: bad connection"), true},
		{"closed", errString("database is closed"), true},
		{"syntax error", errString("syntax error near SELECT"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"duplicate key", errString("Constraint Error: Duplicate key violates unique constraint"), true},
		{"other", errString("out of memory"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("isDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
