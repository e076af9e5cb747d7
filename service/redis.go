package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/druckerbude-source/sticker-customizer/config"
	"github.com/druckerbude-source/sticker-customizer/model"
	"github.com/druckerbude-source/sticker-customizer/utils"
)

// RedisService caches processed sticker metadata and rendered previews
// across restarts. Every getter returns nil on a miss.
type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetStickerResult fetches cached upload metadata by image md5.
func (s *RedisService) GetStickerResult(ctx context.Context, md5 string) (*model.StickerResult, error) {
	data, err := s.client.Get(ctx, "sticker:"+md5).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var result model.StickerResult
	if err := json.Unmarshal(data, &result); err != nil {
		utils.Logger.Error("failed to unmarshal sticker result",
			zap.String("md5", md5), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// SetStickerResult stores upload metadata by image md5.
func (s *RedisService) SetStickerResult(ctx context.Context, md5 string, result *model.StickerResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, "sticker:"+md5, data, s.ttl).Err()
}

// GetPreview fetches rendered preview bytes by variant key.
func (s *RedisService) GetPreview(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, "preview:"+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// SetPreview stores rendered preview bytes by variant key.
func (s *RedisService) SetPreview(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, "preview:"+key, data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
