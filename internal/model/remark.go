package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RemarkType string

const (
	RemarkTypeNew RemarkType = "NEW"
	RemarkTypeOK  RemarkType = "OK"
	RemarkTypeRF  RemarkType = "RF"
	RemarkTypePR  RemarkType = "PR"
)

// ParseRemarkType accepts any letter case.
func ParseRemarkType(raw string) (RemarkType, error) {
	switch t := RemarkType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case RemarkTypeNew, RemarkTypeOK, RemarkTypeRF, RemarkTypePR:
		return t, nil
	default:
		return "", fmt.Errorf("unknown remark type: %q", raw)
	}
}

type RemarkAction string

const (
	RemarkActionCreated RemarkAction = "CREATED"
	RemarkActionUpdated RemarkAction = "UPDATED"
	RemarkActionViewed  RemarkAction = "VIEWED"
)

type IssueRemark struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	IssueID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"issue_id"`
	RemarkType  RemarkType `gorm:"type:varchar(8);not null" json:"remark_type"`
	IsViewed    bool       `gorm:"not null;default:false" json:"is_viewed"`
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (IssueRemark) TableName() string {
	return "issue_remarks"
}

func (r *IssueRemark) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IssueRemarkHistory rows are append-only.
type IssueRemarkHistory struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	IssueID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"issue_id"`
	RemarkType   RemarkType   `gorm:"type:varchar(8);not null" json:"remark_type"`
	StatusAtTime string       `gorm:"type:varchar(32)" json:"status_at_time"`
	ChangedByID  *uuid.UUID   `gorm:"type:uuid" json:"changed_by_id"`
	Action       RemarkAction `gorm:"type:varchar(16);not null" json:"action"`
	ChangedAt    time.Time    `gorm:"autoCreateTime" json:"changed_at"`
}

func (IssueRemarkHistory) TableName() string {
	return "issue_remark_history"
}

func (h *IssueRemarkHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
