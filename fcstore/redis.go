package fcstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"oss.terrastruct.com/util-go/xdefer"
)

const DEFAULT_REDIS_PREFIX = "flowcanvas:doc:"

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	// Prefix namespaces every key. Defaults to DEFAULT_REDIS_PREFIX.
	Prefix string `toml:"prefix"`
}

// RedisStore keeps each document in a string key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (_ *RedisStore, err error) {
	defer xdefer.Errorf(&err, "failed to connect to redis at %s", cfg.Addr)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DEFAULT_REDIS_PREFIX
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Load(ctx context.Context, name string) (_ []byte, err error) {
	defer xdefer.Errorf(&err, "failed to load %s", name)

	if err := ValidateName(name); err != nil {
		return nil, err
	}
	b, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *RedisStore) Save(ctx context.Context, name string, b []byte) (err error) {
	defer xdefer.Errorf(&err, "failed to save %s", name)

	if err := ValidateName(name); err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(name), b, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, name string) (err error) {
	defer xdefer.Errorf(&err, "failed to delete %s", name)

	if err := ValidateName(name); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) (_ []string, err error) {
	defer xdefer.Errorf(&err, "failed to list documents")

	var names []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
