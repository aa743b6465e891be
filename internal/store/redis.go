package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "analysis"

// Redis stores each record as JSON under <prefix>:<id> and keeps a set of
// ids per owner under <prefix>:owner:<owner>.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects lazily to the server named by cfg. An empty prefix
// becomes "analysis".
func NewRedis(cfg RedisConfig) *Redis {
	return NewRedisClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.Prefix)
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) recordKey(id string) string {
	return s.prefix + ":" + id
}

func (s *Redis) ownerSetKey(owner string) string {
	return s.prefix + ":owner:" + ownerKey(owner)
}

// Save writes r and its owner index in one MULTI/EXEC transaction, moving
// the id out of the previous owner's set when the owner changed.
func (s *Redis) Save(ctx context.Context, r analysis.Record) (analysis.Record, error) {
	r, err := prepare(r)
	if err != nil {
		return r, err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return r, fmt.Errorf("encoding analysis %s: %w", r.ID, err)
	}

	// A record that changed owner must leave its previous owner's index.
	previous, err := s.Get(ctx, r.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return r, err
	}
	moved := err == nil && ownerKey(previous.Owner) != ownerKey(r.Owner)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if moved {
			pipe.SRem(ctx, s.ownerSetKey(previous.Owner), r.ID)
		}
		pipe.Set(ctx, s.recordKey(r.ID), payload, 0)
		pipe.SAdd(ctx, s.ownerSetKey(r.Owner), r.ID)
		return nil
	})
	if err != nil {
		return r, fmt.Errorf("saving analysis %s: %w", r.ID, err)
	}
	return r, nil
}

// Get decodes the record stored under id or returns ErrNotFound.
func (s *Redis) Get(ctx context.Context, id string) (analysis.Record, error) {
	b, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err == redis.Nil {
		return analysis.Record{}, ErrNotFound
	}
	if err != nil {
		return analysis.Record{}, fmt.Errorf("loading analysis %s: %w", id, err)
	}
	var r analysis.Record
	if err := json.Unmarshal(b, &r); err != nil {
		return analysis.Record{}, fmt.Errorf("decoding analysis %s: %w", id, err)
	}
	return r, nil
}

// ListByOwner loads every id in the owner's set, skipping ids whose record
// has gone, and orders the result by name.
func (s *Redis) ListByOwner(ctx context.Context, owner string) ([]analysis.Record, error) {
	ids, err := s.client.SMembers(ctx, s.ownerSetKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing analyses for %s: %w", owner, err)
	}
	out := make([]analysis.Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortByName(out)
	return out, nil
}

// Delete removes the record and its owner index entry.
func (s *Redis) Delete(ctx context.Context, id string) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(id))
		pipe.SRem(ctx, s.ownerSetKey(r.Owner), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting analysis %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Redis) Close() error {
	return s.client.Close()
}
