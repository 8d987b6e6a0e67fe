package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"docqa/internal/model"
)

// HistoryCache keeps a per-document window of recent question/answer
// exchanges so the ask path does not hit MySQL on every follow-up.
type HistoryCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	return &HistoryCache{
		client:     client,
		historyTTL: historyTTL,
	}
}

func (c *HistoryCache) GetHistory(ctx context.Context, documentID uint) ([]model.Exchange, bool, error) {
	key := c.historyKey(documentID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var exchanges []model.Exchange
	if err := json.Unmarshal([]byte(raw), &exchanges); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return exchanges, true, nil
}

func (c *HistoryCache) SetHistory(ctx context.Context, documentID uint, exchanges []model.Exchange) error {
	key := c.historyKey(documentID)
	payload, err := json.Marshal(exchanges)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) DeleteHistory(ctx context.Context, documentID uint) error {
	key := c.historyKey(documentID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) historyKey(documentID uint) string {
	return fmt.Sprintf("qa:history:%d", documentID)
}
