package main

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/redis/go-redis/v9"
)

// RedisConf redis 缓存配置
type RedisConf struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RedisStore redis 缓存, 键为 tile:<z>:<x>:<y>
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ TileStore = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConf) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(t maptile.Tile) string {
	return fmt.Sprintf("tile:%d:%d:%d", t.Z, t.X, t.Y)
}

func (s *RedisStore) Has(t maptile.Tile) (bool, error) {
	n, err := s.client.Exists(context.Background(), redisKey(t)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Put(tile Tile) error {
	if err := s.client.Set(context.Background(), redisKey(tile.T), tile.C, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
