package exclusion

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisLookup reads the self-exclusion register from a Redis set.
type RedisLookup struct {
	client    *redis.Client
	namespace string
}

func NewRedisLookup(client *redis.Client, namespace string) *RedisLookup {
	return &RedisLookup{client: client, namespace: namespace}
}

func (l *RedisLookup) registerKey() string {
	return fmt.Sprintf("%s:excluded", l.namespace)
}

func (l *RedisLookup) IsExcluded(ctx context.Context, code string) (bool, error) {
	return l.client.SIsMember(ctx, l.registerKey(), code).Result()
}

// Add puts an identifier on the register.
func (l *RedisLookup) Add(ctx context.Context, code string) error {
	return l.client.SAdd(ctx, l.registerKey(), code).Err()
}

// ------------------------------------------------------------------------------

// InMemoryLookup is the register used in tests and local runs.
type InMemoryLookup struct {
	mutex    sync.Mutex
	excluded map[string]bool
}

func NewInMemoryLookup(codes ...string) *InMemoryLookup {
	lookup := &InMemoryLookup{excluded: make(map[string]bool)}
	for _, code := range codes {
		lookup.excluded[code] = true
	}
	return lookup
}

func (l *InMemoryLookup) IsExcluded(ctx context.Context, code string) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.excluded[code], nil
}

func (l *InMemoryLookup) Add(ctx context.Context, code string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.excluded[code] = true
	return nil
}
