package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

func newContent(t *testing.T) (ContentService, *Notifier, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	rdb := newTestRedis(t)
	notifier := NewNotifier(repository.NewNotificationRepository(db), rdb, 100)
	svc := NewContentService(db,
		repository.NewPostRepository(db),
		repository.NewUserRepository(db),
		repository.NewEdgeRepository(db),
		notifier)
	return svc, notifier, db
}

func TestCreatePostValidation(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "author")

	_, err := svc.CreatePost(ctx, "author", CreatePostInput{Title: ""})
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	_, err = svc.CreatePost(ctx, "author", CreatePostInput{Title: "t", PostType: "rant"})
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	post, err := svc.CreatePost(ctx, "author", CreatePostInput{Title: "t", IsPublished: true})
	require.NoError(t, err)
	require.Equal(t, model.PostTypeShowcase, post.PostType)
}

func TestGetPostCountsView(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedPost(t, db, "p1", "author")

	detail, err := svc.GetPost(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 1, detail.Post.ViewCount)
	require.Equal(t, "author", detail.Author.ID)

	_, err = svc.GetPost(ctx, "p1")
	require.NoError(t, err)

	var p model.Post
	require.NoError(t, db.First(&p, "id = ?", "p1").Error)
	require.EqualValues(t, 2, p.ViewCount)
}

func TestDeletePostOwnerOnly(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedUser(t, db, "stranger")
	seedPost(t, db, "p1", "author")

	err := svc.DeletePost(ctx, "p1", "stranger")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))

	require.NoError(t, svc.DeletePost(ctx, "p1", "author"))
	_, err = svc.GetPost(ctx, "p1")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFeedFollowingScopedToFollowed(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "viewer")
	seedUser(t, db, "followed")
	seedUser(t, db, "other")
	seedPost(t, db, "pf", "followed")
	seedPost(t, db, "po", "other")
	require.NoError(t, db.Create(&model.Follow{
		ID: "e1", FollowerID: "viewer", FollowingID: "followed",
	}).Error)

	posts, err := svc.FeedFollowing(ctx, "viewer", 1, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "pf", posts[0].ID)
}

func TestFeedTrendingOrder(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedPost(t, db, "cold", "author")
	seedPost(t, db, "hot", "author")
	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", "hot").
		UpdateColumn("trending_score", 42.0).Error)

	posts, err := svc.FeedTrending(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "hot", posts[0].ID)
}

func TestListBookmarked(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedUser(t, db, "reader")
	seedPost(t, db, "p1", "author")
	seedPost(t, db, "p2", "author")
	require.NoError(t, db.Create(&model.Bookmark{ID: "b1", UserID: "reader", PostID: "p2"}).Error)

	posts, err := svc.ListBookmarked(ctx, "reader", 1, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "p2", posts[0].ID)
}

func TestCreateReportValidation(t *testing.T) {
	svc, _, db := newContent(t)
	ctx := context.Background()
	seedUser(t, db, "reporter")
	seedUser(t, db, "author")
	seedPost(t, db, "p1", "author")
	postID := "p1"

	err := svc.CreateReport(ctx, "reporter", &postID, nil, "grumpy", "")
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	err = svc.CreateReport(ctx, "reporter", nil, nil, model.ReportSpam, "")
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	require.NoError(t, svc.CreateReport(ctx, "reporter", &postID, nil, model.ReportSpam, "looks botty"))

	var cnt int64
	require.NoError(t, db.Model(&model.Report{}).Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestCreateChallengeNotifiesCohort(t *testing.T) {
	svc, notifier, db := newContent(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin")
	for _, id := range []string{"u1", "u2"} {
		u := seedUser(t, db, id)
		require.NoError(t, db.Model(u).Update("selected_tools", []string{"cursor", "v0"}).Error)
	}
	outsider := seedUser(t, db, "u3")
	require.NoError(t, db.Model(outsider).Update("selected_tools", []string{"replit"}).Error)

	start := time.Now()
	c, err := svc.CreateChallenge(ctx, admin.ID, "Build with Cursor", "", "cursor", start, start.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.True(t, c.IsActive)

	// 只有选择了对应工具的用户收到通知，且已同步落库
	require.Equal(t, 2, notifier.QueueLen())
	var rows int64
	require.NoError(t, db.Model(&model.Notification{}).
		Where("type = ?", model.NotifyChallenge).Count(&rows).Error)
	require.EqualValues(t, 2, rows)

	got, err := svc.ActiveChallenge(ctx)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
}

func TestActiveChallengeNone(t *testing.T) {
	svc, _, _ := newContent(t)

	_, err := svc.ActiveChallenge(context.Background())
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateChallengeBadWindow(t *testing.T) {
	svc, _, db := newContent(t)
	seedUser(t, db, "admin")
	now := time.Now()

	_, err := svc.CreateChallenge(context.Background(), "admin", "t", "", "", now, now)
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))
}
