package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/KaramelBytes/claimlens/internal/logger"
)

// Run is one persisted analysis of an input file.
type Run struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	Source    string    `gorm:"index"`
	Rows      int
	Read      int
	Dropped   int
	CreatedAt time.Time `gorm:"index"`

	Fields       []FieldStat       `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Outliers     []OutlierStat     `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Correlations []CorrelationStat `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// FieldStat is the overview summary of one field. Std is nil when undefined.
type FieldStat struct {
	ID     uint      `gorm:"primaryKey"`
	RunID  uuid.UUID `gorm:"type:text;index"`
	Field  string
	Count  int
	Mean   float64
	Std    *float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

type OutlierStat struct {
	ID         uint      `gorm:"primaryKey"`
	RunID      uuid.UUID `gorm:"type:text;index"`
	Field      string
	Multiplier float64
	Threshold  float64
	Count      int
	Total      int
	Fraction   float64
}

// CorrelationStat stores r with the claim indicator; R is nil when undefined.
type CorrelationStat struct {
	ID    uint      `gorm:"primaryKey"`
	RunID uuid.UUID `gorm:"type:text;index"`
	Field string
	R     *float64
	N     int
}

// Store persists run history in SQLite.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, logg *logger.Logger) (*Store, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	gormLog := gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &FieldStat{}, &OutlierStat{}, &CorrelationStat{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db, log: logg.With("service", "Store", "path", path)}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func nullable(v dataset.NullFloat) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// SaveReport stores the report summary as a new run and returns it.
func (s *Store) SaveReport(rep *analysis.Report) (*Run, error) {
	run := &Run{
		ID:        uuid.New(),
		Source:    rep.Name,
		Rows:      rep.Rows,
		Read:      rep.Read,
		Dropped:   rep.Dropped,
		CreatedAt: time.Now().UTC(),
	}
	for _, fs := range rep.Overview {
		if fs.NoData {
			continue
		}
		run.Fields = append(run.Fields, FieldStat{
			Field:  string(fs.Field),
			Count:  fs.Summary.Count,
			Mean:   fs.Summary.Mean,
			Std:    nullable(fs.Summary.Std),
			Min:    fs.Summary.Min,
			Q1:     fs.Summary.Q1,
			Median: fs.Summary.Median,
			Q3:     fs.Summary.Q3,
			Max:    fs.Summary.Max,
		})
	}
	for _, o := range rep.Outliers {
		run.Outliers = append(run.Outliers, OutlierStat{
			Field:      string(o.Field),
			Multiplier: o.Multiplier,
			Threshold:  o.Threshold,
			Count:      o.Count,
			Total:      o.Total,
			Fraction:   o.Fraction,
		})
	}
	for _, c := range rep.Correlations {
		run.Correlations = append(run.Correlations, CorrelationStat{Field: c.Field, R: nullable(c.R), N: c.N})
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	s.log.Debug("run saved", "run", run.ID.String(), "source", run.Source, "rows", run.Rows)
	return run, nil
}

// ListRuns returns the most recent runs first, with their children loaded.
// A non-empty source restricts the list to that input.
func (s *Store) ListRuns(limit int, source string) ([]Run, error) {
	q := s.db.Preload("Fields").Preload("Outliers").Preload("Correlations").Order("created_at DESC")
	if source != "" {
		q = q.Where("source = ?", source)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(id uuid.UUID) (*Run, error) {
	var run Run
	err := s.db.Preload("Fields").Preload("Outliers").Preload("Correlations").First(&run, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// DeleteRun removes a run and its children.
func (s *Store) DeleteRun(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&FieldStat{}, &OutlierStat{}, &CorrelationStat{}} {
			if err := tx.Where("run_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&Run{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("run %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
}
