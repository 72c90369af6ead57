package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// FollowerSnapshot contains minimal user info required by profile/follower pages.
type FollowerSnapshot struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	VibeScore   int    `json:"vibe_score"`
}

// FollowerService serves follower pages from a Redis list index plus per-user
// snapshot cache, falling back to the primary store on miss.
type FollowerService struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
}

func NewFollowerService(db *gorm.DB, cache *redis.Client, ttl time.Duration) *FollowerService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowerService{db: db, cache: cache, ttl: ttl}
}

func indexKey(userID string) string { return fmt.Sprintf("followers:index:%s", userID) }

func snapshotKey(userID string) string { return fmt.Sprintf("user:snapshot:%s", userID) }

// FetchFollowers returns one page of a user's followers, newest first.
func (s *FollowerService) FetchFollowers(ctx context.Context, userID string, page, size int) ([]FollowerSnapshot, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size - 1

	var ids []string
	if exists, _ := s.cache.Exists(ctx, indexKey(userID)).Result(); exists > 0 {
		ids, _ = s.cache.LRange(ctx, indexKey(userID), int64(start), int64(end)).Result()
	}

	if len(ids) == 0 {
		allIDs, err := s.loadFollowerIDsAndCache(ctx, userID)
		if err != nil {
			return nil, err
		}
		if start >= len(allIDs) {
			return []FollowerSnapshot{}, nil
		}
		endIdx := start + size
		if endIdx > len(allIDs) {
			endIdx = len(allIDs)
		}
		ids = allIDs[start:endIdx]
	}

	return s.loadUsers(ctx, ids)
}

// Invalidate drops the cached index after a follow edge lands.
func (s *FollowerService) Invalidate(ctx context.Context, userID string) {
	_ = s.cache.Del(ctx, indexKey(userID)).Err()
}

func (s *FollowerService) loadFollowerIDsAndCache(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Table("follows").
		Select("follower_id").
		Where("following_id = ?", userID).
		Order("created_at DESC").
		Scan(&ids).Error; err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		vals := make([]interface{}, len(ids))
		for i, id := range ids {
			vals[i] = id
		}
		pipe := s.cache.Pipeline()
		pipe.Del(ctx, indexKey(userID))
		pipe.RPush(ctx, indexKey(userID), vals...)
		pipe.Expire(ctx, indexKey(userID), s.ttl)
		_, _ = pipe.Exec(ctx)
	}
	return ids, nil
}

func (s *FollowerService) loadUsers(ctx context.Context, ids []string) ([]FollowerSnapshot, error) {
	if len(ids) == 0 {
		return []FollowerSnapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = snapshotKey(id)
	}

	cached := make(map[string]FollowerSnapshot, len(ids))
	if vals, err := s.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			if v == nil {
				continue
			}
			if str, ok := v.(string); ok {
				var snap FollowerSnapshot
				if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
					cached[ids[i]] = snap
				}
			}
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		var rows []FollowerSnapshot
		if err := s.db.WithContext(ctx).
			Table("users").
			Select("id", "username", "display_name", "avatar_url", "vibe_score").
			Where("id IN ?", missing).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, snap := range rows {
			cached[snap.ID] = snap
			if payload, err := json.Marshal(snap); err == nil {
				_ = s.cache.Set(ctx, snapshotKey(snap.ID), payload, s.ttl).Err()
			}
		}
	}

	result := make([]FollowerSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := cached[id]; ok {
			result = append(result, snap)
		}
	}
	return result, nil
}
