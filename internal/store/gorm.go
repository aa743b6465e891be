package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// AnalysisRecord is the row layout of the analysis_records table. The full
// record is kept as JSON; owner, name and type are copied out for indexing.
type AnalysisRecord struct {
	ID        string         `gorm:"type:varchar(64);primaryKey"`
	Owner     string         `gorm:"type:varchar(200);not null;index"`
	Name      string         `gorm:"type:varchar(200);not null"`
	Type      string         `gorm:"type:varchar(40);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;autoUpdateTime"`
}

// TableName implements gorm's tabler.
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}

func toRow(r analysis.Record) (AnalysisRecord, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("encoding analysis %s: %w", r.ID, err)
	}
	return AnalysisRecord{
		ID:      r.ID,
		Owner:   ownerKey(r.Owner),
		Name:    r.Name,
		Type:    string(r.Type),
		Payload: datatypes.JSON(payload),
	}, nil
}

func fromRow(row AnalysisRecord) (analysis.Record, error) {
	var r analysis.Record
	if err := json.Unmarshal(row.Payload, &r); err != nil {
		return analysis.Record{}, fmt.Errorf("decoding analysis %s: %w", row.ID, err)
	}
	r.ID = row.ID
	return r, nil
}

// OpenPostgres opens a gorm connection pool for cfg.
func OpenPostgres(cfg PostgresConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres store requires a dsn")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	sqldb, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connMaxLifetime %q: %w", cfg.ConnMaxLifetime, err)
		}
		sqldb.SetConnMaxLifetime(lifetime)
	}
	return db, nil
}

// Gorm stores records in a SQL table through gorm.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the analysis_records table and returns a store over db.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("migrating analysis_records: %w", err)
	}
	return &Gorm{db: db}, nil
}

// Save upserts r keyed on its id.
func (s *Gorm) Save(ctx context.Context, r analysis.Record) (analysis.Record, error) {
	r, err := prepare(r)
	if err != nil {
		return r, err
	}
	row, err := toRow(r)
	if err != nil {
		return r, err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "name", "type", "payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return r, fmt.Errorf("saving analysis %s: %w", r.ID, err)
	}
	return r, nil
}

// Get loads the record with the given id or returns ErrNotFound.
func (s *Gorm) Get(ctx context.Context, id string) (analysis.Record, error) {
	var row AnalysisRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return analysis.Record{}, ErrNotFound
	}
	if err != nil {
		return analysis.Record{}, fmt.Errorf("loading analysis %s: %w", id, err)
	}
	return fromRow(row)
}

// ListByOwner returns the owner's records ordered by name then id.
func (s *Gorm) ListByOwner(ctx context.Context, owner string) ([]analysis.Record, error) {
	var rows []AnalysisRecord
	err := s.db.WithContext(ctx).Where("owner = ?", ownerKey(owner)).Order("name, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing analyses for %s: %w", owner, err)
	}
	out := make([]analysis.Record, 0, len(rows))
	for _, row := range rows {
		r, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes the record with the given id or returns ErrNotFound.
func (s *Gorm) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&AnalysisRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting analysis %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool.
func (s *Gorm) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.Close()
}
