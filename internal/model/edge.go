package model

import "time"

// EdgeType 互动边类型
type EdgeType string

const (
	EdgeLike     EdgeType = "like"
	EdgeBookmark EdgeType = "bookmark"
	EdgeFollow   EdgeType = "follow"
)

// Like 点赞边（user -> post）
// 复合唯一键 idx_like_pair = (user_id, post_id) 避免重复点赞
type Like struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_like_user;index:idx_like_pair,unique;not null"`
	PostID    string `gorm:"type:varchar(36);index:idx_like_post;index:idx_like_pair,unique;not null"`
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }

// Bookmark 收藏边（user -> post）
type Bookmark struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_bookmark_user;index:idx_bookmark_pair,unique;not null"`
	PostID    string `gorm:"type:varchar(36);index:idx_bookmark_post;index:idx_bookmark_pair,unique;not null"`
	CreatedAt time.Time
}

func (Bookmark) TableName() string { return "bookmarks" }

// Follow 关注边（follower 关注 following）
// 复合唯一键 idx_follow_pair = (follower_id, following_id)
type Follow struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID  string `gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
	FollowingID string `gorm:"type:varchar(36);not null;index:idx_follow_following;index:idx_follow_pair,unique"`
	CreatedAt   time.Time
}

func (Follow) TableName() string { return "follows" }
