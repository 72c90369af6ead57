package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vibb-lab/vibb-server/internal/model"
)

func TestFetchFollowersFallbackThenCache(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	svc := NewFollowerService(db, rdb, time.Minute)
	ctx := context.Background()

	seedUser(t, db, "celeb")
	for i, id := range []string{"f1", "f2", "f3"} {
		seedUser(t, db, id)
		require.NoError(t, db.Create(&model.Follow{
			ID:          id + "-edge",
			FollowerID:  id,
			FollowingID: "celeb",
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}).Error)
	}

	// 首次命中回源并写缓存
	page, err := svc.FetchFollowers(ctx, "celeb", 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "f3", page[0].ID) // 最新关注在前

	exists, err := rdb.Exists(ctx, "followers:index:celeb").Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, exists)

	// 第二页
	page, err = svc.FetchFollowers(ctx, "celeb", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "f1", page[0].ID)

	// 越界页为空
	page, err = svc.FetchFollowers(ctx, "celeb", 5, 2)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestInvalidateDropsIndex(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	svc := NewFollowerService(db, rdb, time.Minute)
	ctx := context.Background()

	seedUser(t, db, "celeb")
	seedUser(t, db, "fan")
	require.NoError(t, db.Create(&model.Follow{
		ID: "e1", FollowerID: "fan", FollowingID: "celeb",
	}).Error)

	_, err := svc.FetchFollowers(ctx, "celeb", 1, 20)
	require.NoError(t, err)

	svc.Invalidate(ctx, "celeb")
	exists, err := rdb.Exists(ctx, "followers:index:celeb").Result()
	require.NoError(t, err)
	require.EqualValues(t, 0, exists)
}
