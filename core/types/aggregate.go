package types

import "time"

// Aggregate is a rollup row for a region on a date. ProvinceState is empty
// at country level. DeathsPerMill may be NaN or infinite when population is
// zero or absent.
type Aggregate struct {
	ProvinceState string    `json:"province_state,omitempty"`
	CountryRegion string    `json:"country_region"`
	Date          time.Time `json:"date"`
	Cases         Count     `json:"cases"`
	Deaths        Count     `json:"deaths"`
	Population    Count     `json:"population"`
	DeathsPerMill float64   `json:"-"`
	NewCases      Count     `json:"new_cases"`
	NewDeaths     Count     `json:"new_deaths"`
}

// RegionName is the display name of the aggregate's region
func (a Aggregate) RegionName() string {
	if a.ProvinceState == "" {
		return a.CountryRegion
	}
	return a.ProvinceState
}

// Summary is the max-to-date row for one region
type Summary struct {
	ProvinceState string   `json:"province_state,omitempty"`
	CountryRegion string   `json:"country_region"`
	Cases         int64    `json:"cases"`
	Deaths        int64    `json:"deaths"`
	Population    int64    `json:"population"`
	CasesPerThou  float64  `json:"cases_per_thou"`
	DeathsPerThou float64  `json:"deaths_per_thou"`
	Predicted     *float64 `json:"predicted,omitempty"`
}

// RegionName is the display name of the summary's region
func (s Summary) RegionName() string {
	if s.ProvinceState == "" {
		return s.CountryRegion
	}
	return s.ProvinceState
}
