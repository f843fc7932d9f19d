package types

import "time"

// Region identifies a geographic unit after column names are unified
type Region struct {
	Admin2        string `json:"admin2,omitempty"`
	ProvinceState string `json:"province_state,omitempty"`
	CountryRegion string `json:"country_region"`
	CombinedKey   string `json:"combined_key,omitempty"`
}

// Record is one merged (and possibly enriched) row: a region on a date with
// its cumulative cases and deaths. Population is absent until a source or
// the lookup supplies it.
type Record struct {
	Region     Region    `json:"region"`
	Date       time.Time `json:"date"`
	Cases      Count     `json:"cases"`
	Deaths     Count     `json:"deaths"`
	Population Count     `json:"population"`
}

// LookupRow is one row of the UID/population lookup table
type LookupRow struct {
	UID           string
	FIPS          string
	Admin2        string
	ProvinceState string
	CountryRegion string
	Population    Count
}
