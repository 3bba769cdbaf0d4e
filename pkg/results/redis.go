package results

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ratepool:reports"

// RedisSink appends rows as JSON to the list <prefix>:<runID>.
type RedisSink struct {
	client    redis.UniversalClient
	key       string
	ttl       time.Duration
	ownClient bool
}

// NewRedis creates a sink on client. An empty prefix uses
// "ratepool:reports". A zero ttl leaves the key without expiry. The client
// is not closed by the sink.
func NewRedis(client redis.UniversalClient, prefix, runID string, ttl time.Duration) *RedisSink {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisSink{
		client: client,
		key:    prefix + ":" + runID,
		ttl:    ttl,
	}
}

// Key returns the list key rows are pushed to.
func (s *RedisSink) Key() string {
	return s.key
}

// Write implements Sink. All rows go out in one pipeline.
func (s *RedisSink) Write(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([]interface{}, len(rows))
	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return writeError("redis", err)
		}
		values[i] = b
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return writeError("redis", err)
	}
	return nil
}

// Rows reads back every row in the list.
func (s *RedisSink) Rows(ctx context.Context) ([]Row, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal([]byte(r), &rows[i]); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Close implements Sink. The client is closed only if Open created it.
func (s *RedisSink) Close() error {
	if s.ownClient {
		return s.client.Close()
	}
	return nil
}
