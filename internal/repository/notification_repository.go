package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

// NotificationPage 按创建时间倒序的一页通知及下一页游标
type NotificationPage struct {
	Items      []*model.Notification
	NextCursor string
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// List 键集分页，newest first；cursor 为上一页末尾的 "created_at|id"，
	// 与 (created_at DESC, id DESC) 排序键对齐，时间戳相同也不漏行
	List(ctx context.Context, recipientID, cursor string, limit int) (*NotificationPage, error)
	// MarkRead 单条已读；只允许 unread -> read，且仅限本人
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) List(ctx context.Context, recipientID, cursor string, limit int) (*NotificationPage, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Preload("Actor").
		Where("user_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != "" {
		parts := strings.SplitN(cursor, "|", 2)
		if len(parts) != 2 || parts[1] == "" {
			return nil, apperr.New(apperr.KindInvalidRelation, "malformed cursor")
		}
		ts, err := time.Parse(time.RFC3339Nano, parts[0])
		if err != nil {
			return nil, apperr.New(apperr.KindInvalidRelation, "malformed cursor")
		}
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", ts, ts, parts[1])
	}
	var items []*model.Notification
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	page := &NotificationPage{Items: items}
	if len(items) == limit {
		last := items[len(items)-1]
		page.NextCursor = last.CreatedAt.Format(time.RFC3339Nano) + "|" + last.ID
	}
	return page, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, recipientID, false).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 区分：他人的通知 -> Unauthorized；已读重放 -> 幂等成功
		var n model.Notification
		err := r.db.WithContext(ctx).Where("id = ?", notificationID).First(&n).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("notification not found")
		}
		if err != nil {
			return err
		}
		if n.UserID != recipientID {
			return apperr.Unauthorized("not the notification recipient")
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", recipientID, false).
		Count(&cnt).Error
	return cnt, err
}
