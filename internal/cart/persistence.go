package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackgym/storefront/internal/models"
	"github.com/redis/go-redis/v9"
)

// PersistedCart is the single JSON blob written on every committed mutation.
// Total and ItemCount are stored for inspection but recomputed on load; the
// item list is the only trusted field.
type PersistedCart struct {
	Items     []models.CartItem `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

// Persister stores one cart blob per storage key. Load returns (nil, nil)
// when no cart has been persisted under the key yet.
type Persister interface {
	Load(ctx context.Context, key string) (*PersistedCart, error)
	Save(ctx context.Context, key string, cart PersistedCart) error
	Delete(ctx context.Context, key string) error
}

// FilePersister keeps one JSON file per key, the local-storage contract of
// the original storefront.
type FilePersister struct {
	dir string
}

func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart storage dir %s: %w", dir, err)
	}

	return &FilePersister{dir: dir}, nil
}

func (p *FilePersister) path(key string) string {
	// keys come from session ids but never trust them as path segments
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)

	return filepath.Join(p.dir, safe+".json")
}

func (p *FilePersister) Load(ctx context.Context, key string) (*PersistedCart, error) {
	data, err := os.ReadFile(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read cart file for key %s: %w", key, err)
	}

	var cart PersistedCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart data for key %s: %w", key, err)
	}

	return &cart, nil
}

func (p *FilePersister) Save(ctx context.Context, key string, cart PersistedCart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart for key %s: %w", key, err)
	}

	if err := os.WriteFile(p.path(key), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cart file for key %s: %w", key, err)
	}

	return nil
}

func (p *FilePersister) Delete(ctx context.Context, key string) error {
	if err := os.Remove(p.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cart file for key %s: %w", key, err)
	}

	return nil
}

const redisKeyPrefix = "cart"

func redisKey(key string) string {
	return redisKeyPrefix + ":" + key
}

// RedisPersister shares carts across storefront instances.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

func (p *RedisPersister) Load(ctx context.Context, key string) (*PersistedCart, error) {
	data, err := p.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get cart %s from redis: %w", key, err)
	}

	var cart PersistedCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart data for key %s: %w", key, err)
	}

	return &cart, nil
}

func (p *RedisPersister) Save(ctx context.Context, key string, cart PersistedCart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart for key %s: %w", key, err)
	}

	if err := p.client.Set(ctx, redisKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cart %s in redis: %w", key, err)
	}

	return nil
}

func (p *RedisPersister) Delete(ctx context.Context, key string) error {
	if err := p.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart %s from redis: %w", key, err)
	}

	return nil
}
