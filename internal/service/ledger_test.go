package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

func newLedger(t *testing.T) (LedgerService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	ledger := NewLedgerService(db,
		repository.NewEdgeRepository(db),
		repository.NewUserRepository(db),
		repository.NewPostRepository(db))
	return ledger, db
}

func TestToggleLikeParity(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedUser(t, db, "fan")
	seedPost(t, db, "p1", "author")

	res, err := ledger.Toggle(ctx, model.EdgeLike, "fan", "p1")
	require.NoError(t, err)
	require.Equal(t, StateCreated, res.State)
	require.EqualValues(t, 1, res.Count)

	res, err = ledger.Toggle(ctx, model.EdgeLike, "fan", "p1")
	require.NoError(t, err)
	require.Equal(t, StateRemoved, res.State)
	require.EqualValues(t, 0, res.Count)

	var edges int64
	require.NoError(t, db.Model(&model.Like{}).Count(&edges).Error)
	require.EqualValues(t, 0, edges)

	// 每次成功翻转恰好一条事件，created 与 removed 成对
	var events []model.EngagementEvent
	require.NoError(t, db.Order("created_at").Find(&events).Error)
	require.Len(t, events, 2)
	require.Equal(t, model.ActionCreated, events[0].Action)
	require.Equal(t, model.ActionRemoved, events[1].Action)
	for _, ev := range events {
		require.Equal(t, model.EventPending, ev.Status)
		require.Equal(t, "fan", ev.ActorID)
		require.Equal(t, "p1", ev.TargetID)
		require.Equal(t, "author", ev.OwnerID)
	}
}

func TestToggleFollowOwnerIsTarget(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	res, err := ledger.Toggle(ctx, model.EdgeFollow, "alice", "bob")
	require.NoError(t, err)
	require.Equal(t, StateCreated, res.State)
	require.EqualValues(t, 1, res.Count)

	var ev model.EngagementEvent
	require.NoError(t, db.First(&ev).Error)
	require.Equal(t, model.EdgeFollow, ev.EdgeType)
	require.Equal(t, "bob", ev.OwnerID)
}

func TestToggleSelfFollowRejected(t *testing.T) {
	ledger, db := newLedger(t)
	seedUser(t, db, "alice")

	_, err := ledger.Toggle(context.Background(), model.EdgeFollow, "alice", "alice")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	var events int64
	require.NoError(t, db.Model(&model.EngagementEvent{}).Count(&events).Error)
	require.EqualValues(t, 0, events)
}

func TestToggleMissingTarget(t *testing.T) {
	ledger, db := newLedger(t)
	seedUser(t, db, "fan")

	_, err := ledger.Toggle(context.Background(), model.EdgeLike, "fan", "nope")
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = ledger.Toggle(context.Background(), model.EdgeFollow, "fan", "ghost")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestToggleCountIsLiveCardinality(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedPost(t, db, "p1", "author")
	for _, fan := range []string{"f1", "f2", "f3"} {
		seedUser(t, db, fan)
		_, err := ledger.Toggle(ctx, model.EdgeBookmark, fan, "p1")
		require.NoError(t, err)
	}

	// 冗余计数尚未聚合，响应里的基数仍然是真值
	res, err := ledger.Toggle(ctx, model.EdgeBookmark, "f1", "p1")
	require.NoError(t, err)
	require.Equal(t, StateRemoved, res.State)
	require.EqualValues(t, 2, res.Count)

	var p model.Post
	require.NoError(t, db.First(&p, "id = ?", "p1").Error)
	require.EqualValues(t, 0, p.BookmarkCount)
}

// flip 拿着过期快照时只报 Conflict，不写事件、不动边
func TestFlipStaleSnapshotEmitsNothing(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedUser(t, db, "fan")
	seedPost(t, db, "p1", "author")

	ls := ledger.(*ledgerService)

	// 边已被并发方建好，快照却还是"不存在"
	_, err := ledger.Toggle(ctx, model.EdgeLike, "fan", "p1")
	require.NoError(t, err)
	_, err = ls.flip(ctx, model.EdgeLike, "fan", "p1", "author", false)
	require.True(t, apperr.Is(err, apperr.KindConflict))

	// 反向：边已被并发方删掉，快照却还是"存在"
	require.NoError(t, db.Where("user_id = ? AND post_id = ?", "fan", "p1").Delete(&model.Like{}).Error)
	_, err = ls.flip(ctx, model.EdgeLike, "fan", "p1", "author", true)
	require.True(t, apperr.Is(err, apperr.KindConflict))

	// 两次失败的 flip 都不产生事件
	var events int64
	require.NoError(t, db.Model(&model.EngagementEvent{}).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

// 快照读取后边被并发方建好：冲突后重读现状并反向执行，净效果一条 removed 事件
func TestToggleRetriesOnStaleCreateSnapshot(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedUser(t, db, "fan")
	seedPost(t, db, "p1", "author")

	ls := ledger.(*ledgerService)

	// 并发方抢先建边（直接落边，不走台账）
	require.NoError(t, db.Create(&model.Like{ID: "race-edge", UserID: "fan", PostID: "p1"}).Error)

	res, err := ls.toggleFrom(ctx, model.EdgeLike, "fan", "p1", "author", false)
	require.NoError(t, err)
	require.Equal(t, StateRemoved, res.State)
	require.EqualValues(t, 0, res.Count)

	var events []model.EngagementEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, model.ActionRemoved, events[0].Action)
}

// 快照读取后边被并发方删掉：冲突后重读现状并反向执行，净效果一条 created 事件
func TestToggleRetriesOnStaleRemoveSnapshot(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	seedUser(t, db, "author")
	seedUser(t, db, "fan")
	seedPost(t, db, "p1", "author")

	ls := ledger.(*ledgerService)

	res, err := ls.toggleFrom(ctx, model.EdgeLike, "fan", "p1", "author", true)
	require.NoError(t, err)
	require.Equal(t, StateCreated, res.State)
	require.EqualValues(t, 1, res.Count)

	var events []model.EngagementEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, model.ActionCreated, events[0].Action)

	var edges int64
	require.NoError(t, db.Model(&model.Like{}).Count(&edges).Error)
	require.EqualValues(t, 1, edges)
}
