package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore persists the shared state document in Redis so table
// snapshots and history survive a server restart. Paths map to string
// keys, list-like paths to Redis lists, and change notifications ride a
// single pub/sub channel.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	channel string

	mu   sync.Mutex
	subs []func()
}

// NewRedisStore connects to Redis at addr. The prefix namespaces every
// key so multiple tables can share one instance.
func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if prefix == "" {
		prefix = "vegaslive"
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		channel: prefix + ":events",
	}
}

// Ping verifies the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(path string) string {
	return s.prefix + ":" + path
}

// Replace overwrites the whole subtree at path, dropping any descendants
func (s *RedisStore) Replace(ctx context.Context, path string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	children, err := s.client.Keys(ctx, s.key(path)+"/*").Result()
	if err != nil {
		return fmt.Errorf("list children of %s: %w", path, err)
	}
	pipe := s.client.TxPipeline()
	if len(children) > 0 {
		pipe.Del(ctx, children...)
	}
	pipe.Set(ctx, s.key(path), raw, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return s.publish(ctx, path, raw)
}

// Update applies each path independently, last-write-wins per path
func (s *RedisStore) Update(ctx context.Context, values map[string]interface{}) error {
	pipe := s.client.TxPipeline()
	events := make([]Event, 0, len(values))
	for path, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		pipe.Set(ctx, s.key(path), raw, 0)
		events = append(events, Event{Path: path, Value: raw})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	for _, e := range events {
		if err := s.publish(ctx, e.Path, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Push appends a uniquely keyed child under path
func (s *RedisStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", path, err)
	}
	entry, err := json.Marshal(Entry{Key: uuid.NewString(), Value: raw})
	if err != nil {
		return "", err
	}
	if err := s.client.LPush(ctx, s.key(path), entry).Err(); err != nil {
		return "", fmt.Errorf("push %s: %w", path, err)
	}

	var e Entry
	_ = json.Unmarshal(entry, &e)
	return e.Key, s.publish(ctx, path, raw)
}

// Recent returns the most recent n children of path, newest first
func (s *RedisStore) Recent(ctx context.Context, path string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raws, err := s.client.LRange(ctx, s.key(path), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent %s: %w", path, err)
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode entry under %s: %w", path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Subscribe delivers change events for path and its descendants
func (s *RedisStore) Subscribe(path string) (<-chan Event, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := s.client.Subscribe(ctx, s.channel)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue
			}
			if e.Path != path && !strings.HasPrefix(e.Path, path+"/") {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		cancel()
		_ = pubsub.Close()
	}

	s.mu.Lock()
	s.subs = append(s.subs, unsubscribe)
	s.mu.Unlock()
	return out, unsubscribe
}

// Close tears down subscriptions and the client connection
func (s *RedisStore) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, unsubscribe := range subs {
		unsubscribe()
	}
	return s.client.Close()
}

func (s *RedisStore) publish(ctx context.Context, path string, raw json.RawMessage) error {
	payload, err := json.Marshal(Event{Path: path, Value: raw})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}
