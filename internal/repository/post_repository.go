package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Delete(ctx context.Context, id, ownerID string) error
	// IncrementView 原子自增；浏览计数无去重要求
	IncrementView(ctx context.Context, id string) error
	ListTrending(ctx context.Context, offset, limit int) ([]*model.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []string, offset, limit int) ([]*model.Post, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Post, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
	// ListChangedSince 自上次评分后有变更的帖子（限幅写放大，按批调度）
	ListChangedSince(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error)
	UpdateTrendingScore(ctx context.Context, id string, score float64, scoredAt time.Time) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, err
	}
	return &p, nil
}

// Delete 仅作者可删
func (r *postRepository) Delete(ctx context.Context, id, ownerID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Unauthorized("not the post owner")
	}
	return nil
}

func (r *postRepository) IncrementView(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"view_count": gorm.Expr("view_count + 1"), "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}

func (r *postRepository) ListTrending(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("trending_score DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []string, offset, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return []*model.Post{}, nil
	}
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND is_published = ?", authorIDs, true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_published = ?", userID, true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}
	var posts []*model.Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListChangedSince(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Where("updated_at > ? OR scored_at IS NULL", since).
		Order("id").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) UpdateTrendingScore(ctx context.Context, id string, score float64, scoredAt time.Time) error {
	// UpdateColumns 跳过 updated_at，避免评分本身触发下一轮重算
	return r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"trending_score": score, "scored_at": scoredAt}).Error
}
