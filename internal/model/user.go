package model

import "time"

// User 用户主体；username 全小写、唯一键兜底并发注册
type User struct {
	ID                  string   `gorm:"primaryKey;type:varchar(36)"`
	Username            string   `gorm:"type:varchar(32);uniqueIndex:ux_users_username;not null"`
	Email               string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password            string   `gorm:"type:varchar(255);not null"`
	DisplayName         string   `gorm:"type:varchar(64);not null"`
	Bio                 string   `gorm:"type:text"`
	AvatarURL           string   `gorm:"type:text"`
	WebsiteURL          string   `gorm:"type:text"`
	SelectedTools       []string `gorm:"serializer:json"`
	OnboardingCompleted bool     `gorm:"default:false"`

	// vibe_score 只由奖励事件调整（目前仅邀请奖励）
	VibeScore    int     `gorm:"not null;default:0"`
	ReferralCode string  `gorm:"type:varchar(16);uniqueIndex;not null"`
	ReferredBy   *string `gorm:"type:varchar(36);index"` // 至多设置一次，之后不可变

	// 关注计数冗余，由聚合器维护
	FollowerCount  int64 `gorm:"not null;default:0"`
	FollowingCount int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
