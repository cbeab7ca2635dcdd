// Package wishlist 以 Redis set 保存訪客的收藏清單，key 由客戶端產生的 UUID 決定
package wishlist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"digital-menu/internal/cache"

	"github.com/google/uuid"
)

const DefaultTTL = 30 * 24 * time.Hour

type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

// New ttl <= 0 時使用 DefaultTTL
func New(c cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

func key(id uuid.UUID) string {
	return "wishlist:" + id.String()
}

// Items 回傳清單內的品項 ID（排序後），不存在的清單回傳空切片
func (s *Store) Items(ctx context.Context, id uuid.UUID) ([]string, error) {
	members, err := s.cache.SMembers(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("Items: %w", err)
	}
	if members == nil {
		members = []string{}
	}
	sort.Strings(members)
	return members, nil
}

// Add 加入品項並刷新整份清單的 TTL
func (s *Store) Add(ctx context.Context, id, itemID uuid.UUID) error {
	k := key(id)
	if err := s.cache.SAdd(ctx, k, itemID.String()).Err(); err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	if err := s.cache.Expire(ctx, k, s.ttl).Err(); err != nil {
		return fmt.Errorf("Add: expire: %w", err)
	}
	return nil
}

// Remove 移除品項，品項不在清單內不算錯誤
func (s *Store) Remove(ctx context.Context, id uuid.UUID, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	members := make([]any, len(itemIDs))
	for i, m := range itemIDs {
		members[i] = m
	}
	if err := s.cache.SRem(ctx, key(id), members...).Err(); err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	return nil
}
