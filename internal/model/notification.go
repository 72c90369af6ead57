package model

import "time"

// NotificationType 通知类型
const (
	NotifyLike      = "like"
	NotifyFollow    = "follow"
	NotifyBookmark  = "bookmark"
	NotifyChallenge = "challenge"
)

// Notification 通知日志；只增不删，唯一允许的变更是 unread -> read
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_notify_user_created;not null"` // 接收方
	ActorID   string    `gorm:"type:varchar(36);not null"`
	Type      string    `gorm:"type:varchar(16);not null"`
	PostID    *string   `gorm:"type:varchar(36)"`
	IsRead    bool      `gorm:"default:false;index"`
	CreatedAt time.Time `gorm:"index:idx_notify_user_created"`

	Actor *User `gorm:"foreignKey:ActorID"`
}

func (Notification) TableName() string { return "notifications" }
