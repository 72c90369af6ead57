package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

// CreatePostInput 发帖入参
type CreatePostInput struct {
	Title            string
	Content          string
	PostType         string
	ToolTags         []string
	LivePreviewHTML  string
	PreviewImageURL  string
	BuildTimeMinutes int
	IsPublished      bool
}

// PostDetail 帖子详情及作者快照
type PostDetail struct {
	Post   *model.Post
	Author *model.User
}

// ContentService 帖子、信息流、举报与周挑战
type ContentService interface {
	CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error)
	// GetPost 详情读取顺带浏览自增（无去重，多计可容忍）
	GetPost(ctx context.Context, id string) (*PostDetail, error)
	DeletePost(ctx context.Context, id, actorID string) error
	FeedTrending(ctx context.Context, page, pageSize int) ([]*model.Post, error)
	FeedFollowing(ctx context.Context, viewerID string, page, pageSize int) ([]*model.Post, error)
	ListUserPosts(ctx context.Context, userID string, page, pageSize int) ([]*model.Post, error)
	ListBookmarked(ctx context.Context, userID string, page, pageSize int) ([]*model.Post, error)
	CreateReport(ctx context.Context, reporterID string, postID, reportedUserID *string, reason, detail string) error
	ActiveChallenge(ctx context.Context) (*model.WeeklyChallenge, error)
	CreateChallenge(ctx context.Context, actorID, title, description, toolTag string, startAt, endAt time.Time) (*model.WeeklyChallenge, error)
}

type contentService struct {
	db       *gorm.DB
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	edgeRepo repository.EdgeRepository
	notifier *Notifier
}

func NewContentService(db *gorm.DB, postRepo repository.PostRepository, userRepo repository.UserRepository, edgeRepo repository.EdgeRepository, notifier *Notifier) ContentService {
	return &contentService{db: db, postRepo: postRepo, userRepo: userRepo, edgeRepo: edgeRepo, notifier: notifier}
}

func (s *contentService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error) {
	if in.Title == "" {
		return nil, apperr.InvalidRelation("title required")
	}
	postType := in.PostType
	switch postType {
	case model.PostTypeShowcase, model.PostTypeQuestion, model.PostTypeTip:
	case "":
		postType = model.PostTypeShowcase
	default:
		return nil, apperr.InvalidRelation("unknown post type")
	}
	post := &model.Post{
		ID:               uuid.New().String(),
		UserID:           authorID,
		Title:            in.Title,
		Content:          in.Content,
		PostType:         postType,
		ToolTags:         in.ToolTags,
		LivePreviewHTML:  in.LivePreviewHTML,
		PreviewImageURL:  in.PreviewImageURL,
		BuildTimeMinutes: in.BuildTimeMinutes,
		IsPublished:      in.IsPublished,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *contentService) GetPost(ctx context.Context, id string) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementView(ctx, id); err != nil {
		// 浏览计数失败不影响详情读取
		logger.Warn("view increment failed", zap.String("post", id), zap.Error(err))
	} else {
		post.ViewCount++
	}
	author, err := s.userRepo.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Author: author}, nil
}

func (s *contentService) DeletePost(ctx context.Context, id, actorID string) error {
	return s.postRepo.Delete(ctx, id, actorID)
}

func (s *contentService) FeedTrending(ctx context.Context, page, pageSize int) ([]*model.Post, error) {
	offset, limit := pageBounds(page, pageSize)
	return s.postRepo.ListTrending(ctx, offset, limit)
}

// FeedFollowing 关注流：冗余计数直接随帖子返回，读路径不回表重算
func (s *contentService) FeedFollowing(ctx context.Context, viewerID string, page, pageSize int) ([]*model.Post, error) {
	offset, limit := pageBounds(page, pageSize)
	followingIDs, err := s.edgeRepo.ListFollowingIDs(ctx, viewerID, 0, 1000)
	if err != nil {
		return nil, err
	}
	return s.postRepo.ListByAuthors(ctx, followingIDs, offset, limit)
}

func (s *contentService) ListUserPosts(ctx context.Context, userID string, page, pageSize int) ([]*model.Post, error) {
	offset, limit := pageBounds(page, pageSize)
	return s.postRepo.ListByUser(ctx, userID, offset, limit)
}

func (s *contentService) ListBookmarked(ctx context.Context, userID string, page, pageSize int) ([]*model.Post, error) {
	offset, limit := pageBounds(page, pageSize)
	ids, err := s.edgeRepo.ListBookmarkedPostIDs(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.postRepo.ListByIDs(ctx, ids)
}

func (s *contentService) CreateReport(ctx context.Context, reporterID string, postID, reportedUserID *string, reason, detail string) error {
	switch reason {
	case model.ReportSpam, model.ReportInappropriate, model.ReportCopyright, model.ReportOther:
	default:
		return apperr.InvalidRelation("unknown report reason")
	}
	if postID == nil && reportedUserID == nil {
		return apperr.InvalidRelation("report needs a post or a user")
	}
	return s.db.WithContext(ctx).Create(&model.Report{
		ID:             uuid.New().String(),
		ReporterID:     reporterID,
		PostID:         postID,
		ReportedUserID: reportedUserID,
		Reason:         reason,
		Detail:         detail,
	}).Error
}

func (s *contentService) ActiveChallenge(ctx context.Context) (*model.WeeklyChallenge, error) {
	var c model.WeeklyChallenge
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND end_at > ?", true, time.Now()).
		Order("start_at DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no active challenge")
		}
		return nil, err
	}
	return &c, nil
}

// CreateChallenge 发布周挑战并向选择了对应工具的用户发公告通知
func (s *contentService) CreateChallenge(ctx context.Context, actorID, title, description, toolTag string, startAt, endAt time.Time) (*model.WeeklyChallenge, error) {
	if title == "" || !endAt.After(startAt) {
		return nil, apperr.InvalidRelation("challenge needs a title and a valid window")
	}
	c := &model.WeeklyChallenge{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		ToolTag:     toolTag,
		StartAt:     startAt,
		EndAt:       endAt,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}

	if toolTag != "" {
		var recipients []string
		if err := s.db.WithContext(ctx).
			Model(&model.User{}).
			Select("id").
			Where("selected_tools LIKE ?", "%\""+toolTag+"\"%").
			Limit(1000).
			Scan(&recipients).Error; err != nil {
			logger.Warn("challenge cohort query failed", zap.Error(err))
			return c, nil
		}
		for _, id := range recipients {
			s.notifier.NotifyDirect(ctx, id, actorID, model.NotifyChallenge, nil)
		}
	}
	return c, nil
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
