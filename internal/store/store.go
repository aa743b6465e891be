// Package store persists analysis records. The calculation engine never reads
// from a store; callers load records here and hand them to the engine.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("analysis record not found")

// Store is a keyed collection of analysis records indexed by owner.
type Store interface {
	// Save inserts or replaces a record, assigning an id when it has none,
	// and returns the stored record.
	Save(ctx context.Context, r analysis.Record) (analysis.Record, error)
	Get(ctx context.Context, id string) (analysis.Record, error)
	// ListByOwner returns an owner's records ordered by name.
	ListByOwner(ctx context.Context, owner string) ([]analysis.Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	DSN             string `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime string `mapstructure:"connMaxLifetime" yaml:"connMaxLifetime"`
}

// Config selects and configures a backend.
type Config struct {
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// Open returns the backend named by cfg.Backend; an empty backend selects the
// in-memory store.
func Open(cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	logger.Debug(fmt.Sprintf("opening %q record store", backend), zap.String("op", "store.Open"))

	switch backend {
	case "", constants.StoreMemory:
		return NewMemory(), nil
	case constants.StoreRedis:
		return NewRedis(cfg.Redis), nil
	case constants.StorePostgres:
		db, err := OpenPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return NewGorm(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q, must be one of: %s, %s, %s",
			cfg.Backend, constants.StoreMemory, constants.StoreRedis, constants.StorePostgres)
	}
}

// prepare assigns an id to a record about to be saved.
func prepare(r analysis.Record) (analysis.Record, error) {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Owner = strings.TrimSpace(r.Owner)
	if r.Owner == "" {
		return r, errors.New("owner is required to store an analysis")
	}
	return r, nil
}

func ownerKey(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}

func sortByName(records []analysis.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})
}
