// Package storage exports report runs to a SQLite database.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"covid-report/core/regression"
	"covid-report/core/types"
	"covid-report/internal/errors"
)

// Summary levels
const (
	LevelState   = "state"
	LevelCountry = "country"
)

// Store is the export interface
type Store interface {
	// Save stores a run with its tables
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*Run, error)

	// List lists stored runs, newest first
	List(ctx context.Context) ([]RunInfo, error)

	// Close closes the store
	Close() error
}

// Run is one report run
type Run struct {
	ID             string
	CreatedAt      time.Time
	Inputs         []types.InputDigest
	Model          *regression.Model
	StateSummary   []types.Summary
	CountrySummary []types.Summary
	StateDaily     []types.Aggregate
}

// RunInfo is a run listing entry
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Regions   int
}

// runRow is the runs table
type runRow struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Intercept *float64
	Slope     *float64
	RSquared  *float64
	N         int
}

func (runRow) TableName() string { return "runs" }

type inputRow struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	Name     string
	Location string
	SHA256   string
	Size     int64
}

func (inputRow) TableName() string { return "inputs" }

type summaryRow struct {
	ID            uint   `gorm:"primaryKey"`
	RunID         string `gorm:"index"`
	Level         string `gorm:"index"`
	Position      int
	ProvinceState string
	CountryRegion string
	Cases         int64
	Deaths        int64
	Population    int64
	CasesPerThou  float64
	DeathsPerThou float64
	Predicted     *float64
}

func (summaryRow) TableName() string { return "summaries" }

type dailyRow struct {
	ID            uint   `gorm:"primaryKey"`
	RunID         string `gorm:"index"`
	ProvinceState string `gorm:"index"`
	CountryRegion string
	Date          time.Time
	Cases         *int64
	Deaths        *int64
	Population    *int64
	NewCases      *int64
	NewDeaths     *int64
	DeathsPerMill *float64
}

func (dailyRow) TableName() string { return "state_daily" }

// SQLStore stores runs with gorm
type SQLStore struct {
	db *gorm.DB
}

// Open opens (and migrates) a SQLite database.
func Open(dsn string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInternal, err, "open database %s", dsn)
	}
	if err := db.AutoMigrate(&runRow{}, &inputRow{}, &summaryRow{}, &dailyRow{}); err != nil {
		return nil, errors.Wrapf(errors.TypeInternal, err, "migrate database %s", dsn)
	}
	return &SQLStore{db: db}, nil
}

// Save stores a run in one transaction
func (s *SQLStore) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return errors.Input("run ID is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := runRow{ID: run.ID, CreatedAt: run.CreatedAt}
		if run.Model != nil {
			row.Intercept = floatPtr(run.Model.Intercept)
			row.Slope = floatPtr(run.Model.Slope)
			row.RSquared = floatPtr(run.Model.RSquared)
			row.N = run.Model.N
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		inputs := make([]inputRow, 0, len(run.Inputs))
		for _, in := range run.Inputs {
			inputs = append(inputs, inputRow{
				RunID:    run.ID,
				Name:     in.Name,
				Location: in.Location,
				SHA256:   in.SHA256,
				Size:     in.Size,
			})
		}
		if err := createAll(tx, inputs); err != nil {
			return fmt.Errorf("insert inputs: %w", err)
		}

		summaries := summaryRows(run.ID, LevelState, run.StateSummary)
		summaries = append(summaries, summaryRows(run.ID, LevelCountry, run.CountrySummary)...)
		if err := createAll(tx, summaries); err != nil {
			return fmt.Errorf("insert summaries: %w", err)
		}

		daily := make([]dailyRow, 0, len(run.StateDaily))
		for _, a := range run.StateDaily {
			daily = append(daily, dailyRow{
				RunID:         run.ID,
				ProvinceState: a.ProvinceState,
				CountryRegion: a.CountryRegion,
				Date:          a.Date,
				Cases:         countPtr(a.Cases),
				Deaths:        countPtr(a.Deaths),
				Population:    countPtr(a.Population),
				NewCases:      countPtr(a.NewCases),
				NewDeaths:     countPtr(a.NewDeaths),
				DeathsPerMill: floatPtr(a.DeathsPerMill),
			})
		}
		if err := createAll(tx, daily); err != nil {
			return fmt.Errorf("insert state daily: %w", err)
		}
		return nil
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 500).Error
}

func summaryRows(runID, level string, in []types.Summary) []summaryRow {
	out := make([]summaryRow, 0, len(in))
	for i, s := range in {
		out = append(out, summaryRow{
			RunID:         runID,
			Level:         level,
			Position:      i,
			ProvinceState: s.ProvinceState,
			CountryRegion: s.CountryRegion,
			Cases:         s.Cases,
			Deaths:        s.Deaths,
			Population:    s.Population,
			CasesPerThou:  s.CasesPerThou,
			DeathsPerThou: s.DeathsPerThou,
			Predicted:     s.Predicted,
		})
	}
	return out
}

// Get retrieves a run by ID
func (s *SQLStore) Get(ctx context.Context, id string) (*Run, error) {
	db := s.db.WithContext(ctx)

	var row runRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.TypeInput, "run not found: %s", id)
		}
		return nil, fmt.Errorf("load run: %w", err)
	}

	run := &Run{ID: row.ID, CreatedAt: row.CreatedAt}
	if row.Slope != nil && row.Intercept != nil {
		run.Model = &regression.Model{
			Intercept: *row.Intercept,
			Slope:     *row.Slope,
			N:         row.N,
		}
		if row.RSquared != nil {
			run.Model.RSquared = *row.RSquared
		}
	}

	var inputs []inputRow
	if err := db.Where("run_id = ?", id).Order("id").Find(&inputs).Error; err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	for _, in := range inputs {
		run.Inputs = append(run.Inputs, types.InputDigest{
			Name:     in.Name,
			Location: in.Location,
			SHA256:   in.SHA256,
			Size:     in.Size,
		})
	}

	var summaries []summaryRow
	if err := db.Where("run_id = ?", id).Order("level, position").Find(&summaries).Error; err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	for _, r := range summaries {
		s := types.Summary{
			ProvinceState: r.ProvinceState,
			CountryRegion: r.CountryRegion,
			Cases:         r.Cases,
			Deaths:        r.Deaths,
			Population:    r.Population,
			CasesPerThou:  r.CasesPerThou,
			DeathsPerThou: r.DeathsPerThou,
			Predicted:     r.Predicted,
		}
		if r.Level == LevelCountry {
			run.CountrySummary = append(run.CountrySummary, s)
		} else {
			run.StateSummary = append(run.StateSummary, s)
		}
	}

	var daily []dailyRow
	if err := db.Where("run_id = ?", id).Order("id").Find(&daily).Error; err != nil {
		return nil, fmt.Errorf("load state daily: %w", err)
	}
	for _, d := range daily {
		a := types.Aggregate{
			ProvinceState: d.ProvinceState,
			CountryRegion: d.CountryRegion,
			Date:          d.Date.UTC(),
			Cases:         ptrCount(d.Cases),
			Deaths:        ptrCount(d.Deaths),
			Population:    ptrCount(d.Population),
			NewCases:      ptrCount(d.NewCases),
			NewDeaths:     ptrCount(d.NewDeaths),
			DeathsPerMill: math.NaN(),
		}
		if d.DeathsPerMill != nil {
			a.DeathsPerMill = *d.DeathsPerMill
		}
		run.StateDaily = append(run.StateDaily, a)
	}
	return run, nil
}

// List lists stored runs, newest first
func (s *SQLStore) List(ctx context.Context) ([]RunInfo, error) {
	var rows []runRow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]RunInfo, 0, len(rows))
	for _, r := range rows {
		var n int64
		if err := s.db.WithContext(ctx).Model(&summaryRow{}).
			Where("run_id = ? AND level = ?", r.ID, LevelState).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count summaries: %w", err)
		}
		out = append(out, RunInfo{ID: r.ID, CreatedAt: r.CreatedAt, Regions: int(n)})
	}
	return out, nil
}

// Close closes the store
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func countPtr(c types.Count) *int64 {
	if !c.Valid {
		return nil
	}
	v := c.Value
	return &v
}

func ptrCount(p *int64) types.Count {
	if p == nil {
		return types.None()
	}
	return types.Some(*p)
}

// floatPtr maps non-finite values to NULL
func floatPtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
