package model

import "time"

// 事件状态流转 pending -> applied，id 即去重键，聚合器至多应用一次
const (
	EventPending = "pending"
	EventApplied = "applied"
)

// 事件动作
const (
	ActionCreated = "created"
	ActionRemoved = "removed"
)

// EngagementEvent 互动事件外发盒；与边变更同事务写入
type EngagementEvent struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	EdgeType  EdgeType  `gorm:"type:varchar(16);not null"`
	Action    string    `gorm:"type:varchar(16);not null"`
	ActorID   string    `gorm:"type:varchar(36);not null"`
	TargetID  string    `gorm:"type:varchar(36);not null"` // 帖子或被关注用户
	OwnerID   string    `gorm:"type:varchar(36);not null"` // 目标归属者（通知接收方）
	Status    string    `gorm:"type:varchar(16);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	AppliedAt *time.Time
}

func (EngagementEvent) TableName() string { return "engagement_events" }
