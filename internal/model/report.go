package model

import "time"

// 举报原因
const (
	ReportSpam          = "spam"
	ReportInappropriate = "inappropriate"
	ReportCopyright     = "copyright"
	ReportOther         = "other"
)

// Report 举报记录
type Report struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)"`
	ReporterID     string  `gorm:"type:varchar(36);not null;index"`
	PostID         *string `gorm:"type:varchar(36);index"`
	ReportedUserID *string `gorm:"type:varchar(36);index"`
	Reason         string  `gorm:"type:varchar(16);not null"`
	Detail         string  `gorm:"type:text"`
	IsResolved     bool    `gorm:"default:false"`
	CreatedAt      time.Time
}

func (Report) TableName() string { return "reports" }
