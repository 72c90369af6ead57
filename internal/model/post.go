package model

import "time"

// PostType 内容类型
const (
	PostTypeShowcase = "showcase"
	PostTypeQuestion = "question"
	PostTypeTip      = "tip"
)

// Post 内容主体；计数字段为冗余值，只由聚合器/浏览计数写入
type Post struct {
	ID               string   `gorm:"primaryKey;type:varchar(36)"`
	UserID           string   `gorm:"type:varchar(36);index:idx_post_user;not null"`
	Title            string   `gorm:"type:varchar(255);not null"`
	Content          string   `gorm:"type:text"`
	PostType         string   `gorm:"type:varchar(16);default:'showcase'"`
	ToolTags         []string `gorm:"serializer:json"`
	LivePreviewHTML  string   `gorm:"type:text"`
	PreviewImageURL  string   `gorm:"type:text"`
	BuildTimeMinutes int      `gorm:"default:0"`
	IsPublished      bool     `gorm:"default:true;index"`

	LikeCount     int64   `gorm:"not null;default:0"`
	BookmarkCount int64   `gorm:"not null;default:0"`
	ViewCount     int64   `gorm:"not null;default:0"`
	TrendingScore float64 `gorm:"not null;default:0;index:idx_post_trending"`
	ScoredAt      *time.Time

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`
}

func (Post) TableName() string { return "posts" }
