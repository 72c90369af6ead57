package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

func seedTestPost(t *testing.T, repo PostRepository, id, authorID string) *model.Post {
	t.Helper()
	p := &model.Post{ID: id, UserID: authorID, Title: "t", IsPublished: true}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPostDeleteOwnerScoped(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedTestPost(t, repo, "p1", "author")

	err := repo.Delete(ctx, "p1", "stranger")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))

	require.NoError(t, repo.Delete(ctx, "p1", "author"))
	_, err = repo.GetByID(ctx, "p1")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPostIncrementView(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedTestPost(t, repo, "p1", "author")

	require.NoError(t, repo.IncrementView(ctx, "p1"))
	require.NoError(t, repo.IncrementView(ctx, "p1"))

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 2, p.ViewCount)

	err = repo.IncrementView(ctx, "missing")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListChangedSince(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedTestPost(t, repo, "p1", "author")
	seedTestPost(t, repo, "p2", "author")

	// 未评分的帖子总在扫描范围内
	posts, err := repo.ListChangedSince(ctx, time.Now().Add(time.Hour), 0, 100)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	now := time.Now()
	require.NoError(t, repo.UpdateTrendingScore(ctx, "p1", 1.5, now))
	require.NoError(t, repo.UpdateTrendingScore(ctx, "p2", 0.5, now))

	// 评分写入不推进 updated_at，不会自触发下一轮
	posts, err = repo.ListChangedSince(ctx, now, 0, 100)
	require.NoError(t, err)
	require.Empty(t, posts)

	// 计数落地推进 updated_at 后重新入扫
	require.NoError(t, repo.IncrementView(ctx, "p1"))
	posts, err = repo.ListChangedSince(ctx, now, 0, 100)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "p1", posts[0].ID)
}

func TestListTrendingRanksByScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedTestPost(t, repo, "cold", "author")
	seedTestPost(t, repo, "hot", "author")
	draft := &model.Post{ID: "draft", UserID: "author", Title: "t", IsPublished: false}
	require.NoError(t, repo.Create(ctx, draft))

	require.NoError(t, repo.UpdateTrendingScore(ctx, "hot", 9.9, time.Now()))

	posts, err := repo.ListTrending(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2) // 草稿不出现
	require.Equal(t, "hot", posts[0].ID)
}
