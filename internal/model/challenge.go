package model

import "time"

// WeeklyChallenge 每周挑战
type WeeklyChallenge struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	ToolTag     string    `gorm:"type:varchar(32)"`
	StartAt     time.Time `gorm:"not null"`
	EndAt       time.Time `gorm:"not null;index"`
	IsActive    bool      `gorm:"default:true;index"`
	CreatedAt   time.Time
}

func (WeeklyChallenge) TableName() string { return "weekly_challenges" }
