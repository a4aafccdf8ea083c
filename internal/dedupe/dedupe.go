package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iplan/cellact/internal/model"
)

const keyPrefix = "cellact:seen:"

// Deduper remembers accepted event ids for ttl so gateway re-deliveries of
// the same push are dropped.
type Deduper struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func New(rdb redis.Cmdable, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	return &Deduper{rdb: rdb, ttl: ttl}
}

func key(kind model.EventKind, id string) string {
	return keyPrefix + string(kind) + ":" + id
}

// FirstSeen claims id and reports whether this is the first time it is seen.
func (d *Deduper) FirstSeen(ctx context.Context, kind model.EventKind, id string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, key(kind, id), time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe %s %s: %w", kind, id, err)
	}

	return ok, nil
}

// Forget releases a claim so a later re-delivery is processed again.
func (d *Deduper) Forget(ctx context.Context, kind model.EventKind, id string) error {
	if err := d.rdb.Del(ctx, key(kind, id)).Err(); err != nil {
		return fmt.Errorf("forget %s %s: %w", kind, id, err)
	}

	return nil
}
