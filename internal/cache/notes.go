// Package cache holds the redis read-through cache for single notes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jotnotes/apiserver/config"
	"github.com/jotnotes/apiserver/types"
	"go.uber.org/zap"
)

const (
	noteKey                = "notes.%d.%d"
	defaultInvalidateDelay = 500 * time.Millisecond
)

// ErrNotConfigured is returned by New when no redis address is set.
var ErrNotConfigured = errors.New("cache is not configured")

// cachedNote keeps the owner, which types.Note hides from JSON.
type cachedNote struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteCache caches notes by owner and id. Failures are logged and
// reported as misses.
//
// Invalidate deletes the key twice: immediately, and again after
// invalidateDelay, so a reader that loaded the row before the write
// cannot leave it cached.
type NoteCache struct {
	client          *redis.Client
	ttl             time.Duration
	opTimeout       time.Duration
	invalidateDelay time.Duration
	log             *zap.SugaredLogger

	pending sync.WaitGroup
}

// New connects to redis and verifies the connection.
func New(ctx context.Context, cfg config.CacheConfig, log *zap.SugaredLogger) (*NoteCache, error) {
	if cfg.Addr == "" {
		return nil, ErrNotConfigured
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.User,
		Password: cfg.Password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	c := NewWithClient(client, cfg.TTL, cfg.OperationTimeout, log)
	if cfg.InvalidateDelay > 0 {
		c.invalidateDelay = cfg.InvalidateDelay
	}
	return c, nil
}

func NewWithClient(client *redis.Client, ttl, opTimeout time.Duration, log *zap.SugaredLogger) *NoteCache {
	if opTimeout <= 0 {
		opTimeout = time.Second
	}
	return &NoteCache{
		client:          client,
		ttl:             ttl,
		opTimeout:       opTimeout,
		invalidateDelay: defaultInvalidateDelay,
		log:             log,
	}
}

func key(ownerID, id int) string {
	return fmt.Sprintf(noteKey, ownerID, id)
}

func (c *NoteCache) Get(ctx context.Context, ownerID, id int) (types.Note, bool) {
	k := key(ownerID, id)

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	raw, err := c.client.Get(opCtx, k).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Errorw("cache get", "key", k, "error", err)
		}
		return types.Note{}, false
	}

	var cached cachedNote
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.log.Errorw("cache decode", "key", k, "error", err)
		return types.Note{}, false
	}
	if cached.UserID != ownerID {
		return types.Note{}, false
	}

	return types.Note{
		ID:        cached.ID,
		Title:     cached.Title,
		Content:   cached.Content,
		UserID:    cached.UserID,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, true
}

func (c *NoteCache) Set(ctx context.Context, note types.Note) {
	k := key(note.UserID, note.ID)
	data, err := json.Marshal(cachedNote{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		UserID:    note.UserID,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	})
	if err != nil {
		c.log.Errorw("cache encode", "key", k, "error", err)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	if err := c.client.Set(opCtx, k, data, c.ttl).Err(); err != nil {
		c.log.Errorw("cache set", "key", k, "error", err)
	}
}

func (c *NoteCache) Invalidate(ctx context.Context, ownerID, id int) {
	k := key(ownerID, id)
	c.del(ctx, k)

	c.pending.Add(1)
	time.AfterFunc(c.invalidateDelay, func() {
		defer c.pending.Done()
		c.del(context.Background(), k)
	})
}

func (c *NoteCache) del(ctx context.Context, k string) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	if err := c.client.Del(opCtx, k).Err(); err != nil {
		c.log.Errorw("cache invalidate", "key", k, "error", err)
	}
}

// Close waits for scheduled invalidations and closes the client.
func (c *NoteCache) Close() error {
	c.pending.Wait()
	return c.client.Close()
}
