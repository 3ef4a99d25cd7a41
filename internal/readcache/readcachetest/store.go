// Package readcachetest provides an in-memory readcache.Store for tests.
package readcachetest

import (
	"context"
	"sort"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store keeps values and tag sets in maps. Set FailOn["get"] (or "set",
// "del", "smembers") to make that operation fail.
type Store struct {
	mu     sync.Mutex
	Values map[string]string
	Sets   map[string]map[string]struct{}
	TTLs   map[string]time.Duration
	FailOn map[string]error
}

func NewStore() *Store {
	return &Store{
		Values: map[string]string{},
		Sets:   map[string]map[string]struct{}{},
		TTLs:   map[string]time.Duration{},
		FailOn: map[string]error{},
	}
}

func (m *Store) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["get"]; err != nil {
		return "", err
	}
	v, ok := m.Values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *Store) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["set"]; err != nil {
		return err
	}
	m.Values[key] = value.(string)
	m.TTLs[key] = ttl
	return nil
}

func (m *Store) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["del"]; err != nil {
		return err
	}
	for _, k := range keys {
		delete(m.Values, k)
		delete(m.Sets, k)
	}
	return nil
}

func (m *Store) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Sets[key] == nil {
		m.Sets[key] = map[string]struct{}{}
	}
	for _, member := range members {
		m.Sets[key][member] = struct{}{}
	}
	return nil
}

func (m *Store) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["smembers"]; err != nil {
		return nil, err
	}
	out := []string{}
	for member := range m.Sets[key] {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TTLs[key] = ttl
	return nil
}

func (m *Store) CacheKey(name string) string { return "cache:" + name }
func (m *Store) TagKey(tag string) string    { return "tag:" + tag }
