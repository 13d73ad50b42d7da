package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecopower/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Registry tracks which accounts currently hold a live client
// connection. Messaging consults it to decide whether a push is needed
// at all: an online recipient sees the message immediately.
type Registry interface {
	// Connect marks the account as online
	Connect(ctx context.Context, userID uuid.UUID) error

	// Heartbeat refreshes the online mark of a connected account
	Heartbeat(ctx context.Context, userID uuid.UUID) error

	// Disconnect marks the account as offline
	Disconnect(ctx context.Context, userID uuid.UUID) error

	// IsOnline reports whether the account is currently connected
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)

	// OnlineCount returns the number of connected accounts
	OnlineCount(ctx context.Context) (int64, error)
}

// presenceTTL bounds how long a crashed client stays marked online
const presenceTTL = 90 * time.Second

// RedisRegistry implements Registry on Redis keys with a TTL, so the
// registry survives server restarts and works across replicas
type RedisRegistry struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRegistry creates a registry and verifies the connection
func NewRedisRegistry(cfg config.RedisConfig) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for presence: %w", err)
	}

	return &RedisRegistry{
		client:    client,
		keyPrefix: "presence:online:",
	}, nil
}

func (r *RedisRegistry) key(userID uuid.UUID) string {
	return r.keyPrefix + userID.String()
}

// Connect marks the account as online
func (r *RedisRegistry) Connect(ctx context.Context, userID uuid.UUID) error {
	return r.client.Set(ctx, r.key(userID), "1", presenceTTL).Err()
}

// Heartbeat refreshes the online mark
func (r *RedisRegistry) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	return r.client.Expire(ctx, r.key(userID), presenceTTL).Err()
}

// Disconnect marks the account as offline
func (r *RedisRegistry) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

// IsOnline reports whether the account is currently connected
func (r *RedisRegistry) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnlineCount returns the number of connected accounts
func (r *RedisRegistry) OnlineCount(ctx context.Context) (int64, error) {
	var count int64
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.keyPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Close releases the Redis connection
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

var _ Registry = (*RedisRegistry)(nil)

// MemoryRegistry is an in-process Registry for development and tests
type MemoryRegistry struct {
	mu     sync.RWMutex
	online map[uuid.UUID]time.Time
}

// NewMemoryRegistry creates an empty in-process registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{online: make(map[uuid.UUID]time.Time)}
}

// Connect marks the account as online
func (m *MemoryRegistry) Connect(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[userID] = time.Now().Add(presenceTTL)
	return nil
}

// Heartbeat refreshes the online mark
func (m *MemoryRegistry) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	return m.Connect(ctx, userID)
}

// Disconnect marks the account as offline
func (m *MemoryRegistry) Disconnect(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.online, userID)
	return nil
}

// IsOnline reports whether the account is currently connected
func (m *MemoryRegistry) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deadline, ok := m.online[userID]
	return ok && time.Now().Before(deadline), nil
}

// OnlineCount returns the number of connected accounts
func (m *MemoryRegistry) OnlineCount(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var count int64
	for _, deadline := range m.online {
		if now.Before(deadline) {
			count++
		}
	}
	return count, nil
}

var _ Registry = (*MemoryRegistry)(nil)
