package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
)

// EdgeRepository 互动边读路径；写路径在 Ledger 事务内完成
type EdgeRepository interface {
	Exists(ctx context.Context, typ model.EdgeType, actorID, targetID string) (bool, error)
	Count(ctx context.Context, typ model.EdgeType, targetID string) (int64, error)
	ListFollowingIDs(ctx context.Context, followerID string, offset, limit int) ([]string, error)
	ListFollowerIDs(ctx context.Context, followingID string, offset, limit int) ([]string, error)
	ListBookmarkedPostIDs(ctx context.Context, userID string, offset, limit int) ([]string, error)
}

type edgeRepository struct {
	db *gorm.DB
}

func NewEdgeRepository(db *gorm.DB) EdgeRepository { return &edgeRepository{db: db} }

// edgeQuery 按类型定位边表与列名
func edgeQuery(typ model.EdgeType) (table, actorCol, targetCol string, err error) {
	switch typ {
	case model.EdgeLike:
		return "likes", "user_id", "post_id", nil
	case model.EdgeBookmark:
		return "bookmarks", "user_id", "post_id", nil
	case model.EdgeFollow:
		return "follows", "follower_id", "following_id", nil
	default:
		return "", "", "", fmt.Errorf("unknown edge type: %s", typ)
	}
}

func (r *edgeRepository) Exists(ctx context.Context, typ model.EdgeType, actorID, targetID string) (bool, error) {
	table, actorCol, targetCol, err := edgeQuery(typ)
	if err != nil {
		return false, err
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Table(table).
		Where(actorCol+" = ? AND "+targetCol+" = ?", actorID, targetID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// Count 目标实体当前边基数（toggle 响应用；信息流读冗余计数）
func (r *edgeRepository) Count(ctx context.Context, typ model.EdgeType, targetID string) (int64, error) {
	table, _, targetCol, err := edgeQuery(typ)
	if err != nil {
		return 0, err
	}
	var cnt int64
	err = r.db.WithContext(ctx).
		Table(table).
		Where(targetCol+" = ?", targetID).
		Count(&cnt).Error
	return cnt, err
}

func (r *edgeRepository) ListFollowingIDs(ctx context.Context, followerID string, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Select("following_id").
		Where("follower_id = ?", followerID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&ids).Error
	return ids, err
}

func (r *edgeRepository) ListFollowerIDs(ctx context.Context, followingID string, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Select("follower_id").
		Where("following_id = ?", followingID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&ids).Error
	return ids, err
}

func (r *edgeRepository) ListBookmarkedPostIDs(ctx context.Context, userID string, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Bookmark{}).
		Select("post_id").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&ids).Error
	return ids, err
}
