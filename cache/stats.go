package cache

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"fleet-dispatch-system/models"
)

// statsKey is the redis hash holding the latest cell statistics,
// one field per cell id.
const statsKey = "hexagon:stats"

// StatsCache mirrors the balancer's cell statistics into redis so
// external consumers (dashboards, other services) can read them
// without touching the engine.
type StatsCache struct {
	rdb *redis.Client
}

func NewStatsCache(rdb *redis.Client) *StatsCache {
	return &StatsCache{rdb: rdb}
}

// PublishStats replaces the cached snapshot with the given one.
func (c *StatsCache) PublishStats(ctx context.Context, stats map[string]models.CellStats) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, statsKey)
	if len(stats) > 0 {
		fields := make(map[string]interface{}, len(stats))
		for cell, st := range stats {
			buf, err := json.Marshal(st)
			if err != nil {
				return err
			}
			fields[cell] = buf
		}
		pipe.HSet(ctx, statsKey, fields)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ReadStats returns the cached snapshot.
func (c *StatsCache) ReadStats(ctx context.Context) (map[string]models.CellStats, error) {
	fields, err := c.rdb.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.CellStats, len(fields))
	for cell, raw := range fields {
		var st models.CellStats
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, err
		}
		out[cell] = st
	}
	return out, nil
}
