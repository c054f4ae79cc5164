package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Update struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	IssueID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"issue_id"`
	Status     string         `gorm:"type:varchar(32);not null" json:"status"`
	Comment    *string        `gorm:"type:text" json:"comment"`
	PhotoURLs  pq.StringArray `gorm:"type:text[]" json:"photo_urls"`
	UpdateTime time.Time      `gorm:"autoCreateTime" json:"update_time"`
}

func (Update) TableName() string {
	return "updates"
}

func (u *Update) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ApplyStatus is the only path that changes an issue's status once it exists.
func (u *Update) ApplyStatus(issue *Issue, status string) {
	status = strings.ToUpper(strings.TrimSpace(status))
	u.IssueID = issue.ID
	u.Status = status
	issue.Status = status
}
