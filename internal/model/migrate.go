package model

import "gorm.io/gorm"

// AutoMigrate 建表；唯一索引即并发控制的兜底
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Post{},
		&Like{},
		&Bookmark{},
		&Follow{},
		&EngagementEvent{},
		&Notification{},
		&WeeklyChallenge{},
		&Report{},
	)
}
