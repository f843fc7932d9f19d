// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions and
// small value helpers.
package types

import (
	"strings"
	"time"
)

// Metric names a cumulative measure carried by a time-series table
type Metric string

const (
	MetricCases  Metric = "cases"
	MetricDeaths Metric = "deaths"
)

// String returns the string representation of the metric
func (m Metric) String() string {
	return string(m)
}

// IsValid checks if the metric is a known metric
func (m Metric) IsValid() bool {
	switch m {
	case MetricCases, MetricDeaths:
		return true
	default:
		return false
	}
}

// Canonical column names used after the merge step.
const (
	ColUID           = "UID"
	ColFIPS          = "FIPS"
	ColAdmin2        = "Admin2"
	ColProvinceState = "Province_State"
	ColCountryRegion = "Country_Region"
	ColCombinedKey   = "Combined_Key"
	ColPopulation    = "Population"
)

// CanonicalColumn unifies slash and underscore spellings of the region
// columns: "Province/State" and "Province_State" both become "Province_State".
func CanonicalColumn(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	switch name {
	case "Province/State", ColProvinceState:
		return ColProvinceState
	case "Country/Region", ColCountryRegion:
		return ColCountryRegion
	}
	return name
}

// DateLayout is the M/D/YY layout used for date column headers.
const DateLayout = "1/2/06"

// ParseDate parses an M/D/YY header into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
