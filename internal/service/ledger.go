package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

// Toggle 结果状态
const (
	StateCreated = "created"
	StateRemoved = "removed"
)

// ToggleResult 边翻转结果；Count 为目标当前边基数（冗余计数异步落地，响应取实时值）
type ToggleResult struct {
	State string
	Count int64
}

// LedgerService 互动台账：like/bookmark/follow 边的唯一事实来源。
// 每次成功变更在同一事务内写入一条 EngagementEvent，供聚合器与通知消费。
type LedgerService interface {
	Toggle(ctx context.Context, typ model.EdgeType, actorID, targetID string) (*ToggleResult, error)
}

type ledgerService struct {
	db       *gorm.DB
	edgeRepo repository.EdgeRepository
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func NewLedgerService(db *gorm.DB, edgeRepo repository.EdgeRepository, userRepo repository.UserRepository, postRepo repository.PostRepository) LedgerService {
	return &ledgerService{db: db, edgeRepo: edgeRepo, userRepo: userRepo, postRepo: postRepo}
}

// Toggle 无边则建边并报 created，有边则删边并报 removed。
// 并发同键调用由唯一索引 + 按影响行数判定的删除串行化；
// 输掉竞争的一方重读一次现状再反向执行，仍冲突则返回 Conflict。
func (s *ledgerService) Toggle(ctx context.Context, typ model.EdgeType, actorID, targetID string) (*ToggleResult, error) {
	if typ == model.EdgeFollow && actorID == targetID {
		return nil, apperr.InvalidRelation("cannot follow self")
	}

	ownerID, err := s.resolveOwner(ctx, typ, targetID)
	if err != nil {
		return nil, err
	}

	exists, err := s.edgeRepo.Exists(ctx, typ, actorID, targetID)
	if err != nil {
		return nil, err
	}
	return s.toggleFrom(ctx, typ, actorID, targetID, ownerID, exists)
}

// toggleFrom 以给定现状快照执行翻转；快照过期（flip 报 Conflict）时
// 重读一次现状再反向执行，仍冲突则把 Conflict 交给调用方。
func (s *ledgerService) toggleFrom(ctx context.Context, typ model.EdgeType, actorID, targetID, ownerID string, exists bool) (*ToggleResult, error) {
	state, err := s.flip(ctx, typ, actorID, targetID, ownerID, exists)
	if apperr.Is(err, apperr.KindConflict) {
		exists, rerr := s.edgeRepo.Exists(ctx, typ, actorID, targetID)
		if rerr != nil {
			return nil, rerr
		}
		state, err = s.flip(ctx, typ, actorID, targetID, ownerID, exists)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.edgeRepo.Count(ctx, typ, targetID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{State: state, Count: count}, nil
}

// flip 按读到的现状执行一次建边或删边；边变更与事件写入同事务
func (s *ledgerService) flip(ctx context.Context, typ model.EdgeType, actorID, targetID, ownerID string, exists bool) (string, error) {
	var state string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var affected int64
		var action string
		if exists {
			res := deleteEdge(tx, typ, actorID, targetID)
			if res.Error != nil {
				return res.Error
			}
			affected, action, state = res.RowsAffected, model.ActionRemoved, StateRemoved
		} else {
			res := createEdge(tx, typ, actorID, targetID)
			if res.Error != nil {
				return res.Error
			}
			affected, action, state = res.RowsAffected, model.ActionCreated, StateCreated
		}
		if affected == 0 {
			// 现状已被并发方改变
			return apperr.Conflict("edge changed concurrently")
		}
		ev := &model.EngagementEvent{
			ID:        uuid.New().String(),
			EdgeType:  typ,
			Action:    action,
			ActorID:   actorID,
			TargetID:  targetID,
			OwnerID:   ownerID,
			Status:    model.EventPending,
			CreatedAt: time.Now(),
		}
		return tx.Create(ev).Error
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// resolveOwner 校验目标存在并返回其归属者（通知接收方）
func (s *ledgerService) resolveOwner(ctx context.Context, typ model.EdgeType, targetID string) (string, error) {
	if typ == model.EdgeFollow {
		u, err := s.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	}
	p, err := s.postRepo.GetByID(ctx, targetID)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func createEdge(tx *gorm.DB, typ model.EdgeType, actorID, targetID string) *gorm.DB {
	now := time.Now()
	switch typ {
	case model.EdgeLike:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Like{ID: uuid.New().String(), UserID: actorID, PostID: targetID, CreatedAt: now})
	case model.EdgeBookmark:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Bookmark{ID: uuid.New().String(), UserID: actorID, PostID: targetID, CreatedAt: now})
	default:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Follow{ID: uuid.New().String(), FollowerID: actorID, FollowingID: targetID, CreatedAt: now})
	}
}

func deleteEdge(tx *gorm.DB, typ model.EdgeType, actorID, targetID string) *gorm.DB {
	switch typ {
	case model.EdgeLike:
		return tx.Where("user_id = ? AND post_id = ?", actorID, targetID).Delete(&model.Like{})
	case model.EdgeBookmark:
		return tx.Where("user_id = ? AND post_id = ?", actorID, targetID).Delete(&model.Bookmark{})
	default:
		return tx.Where("follower_id = ? AND following_id = ?", actorID, targetID).Delete(&model.Follow{})
	}
}
