package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Issue status is stored as free text; these are the values the service writes.
const (
	IssueStatusPending    = "PENDING"
	IssueStatusInProgress = "IN_PROGRESS"
	IssueStatusCompleted  = "COMPLETED"
)

// CategoryCustom marks an issue whose category is given in CustomCategory.
const CategoryCustom = "custom"

type Issue struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Description         string         `gorm:"type:text;not null" json:"description"`
	UsingCustomLocation bool           `gorm:"not null;default:false" json:"using_custom_location"`
	Latitude            *float64       `json:"latitude"`
	Longitude           *float64       `json:"longitude"`
	CustomLocation      *string        `gorm:"type:text" json:"custom_location"`
	Category            string         `gorm:"type:varchar(100);not null" json:"category"`
	CustomCategory      *string        `gorm:"type:varchar(255)" json:"custom_category"`
	Status              string         `gorm:"type:varchar(32);not null;default:PENDING" json:"status"`
	PhotoURLs           pq.StringArray `gorm:"type:text[]" json:"photo_urls"`
	VideoURLs           pq.StringArray `gorm:"type:text[]" json:"video_urls"`
	ReportedByID        *uuid.UUID     `gorm:"type:uuid;index" json:"reported_by_id"`
	ReportedBy          *User          `gorm:"foreignKey:ReportedByID" json:"reported_by,omitempty"`
	Assigned            bool           `gorm:"not null;default:false" json:"assigned"`
	AssignedToID        *uuid.UUID     `gorm:"type:uuid;index" json:"assigned_to_id"`
	AssignedTo          *Staff         `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Priority            *string        `gorm:"type:varchar(32)" json:"priority"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Issue) TableName() string {
	return "issues"
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = IssueStatusPending
	}
	return nil
}

// AssignTo links the issue to staff. An empty priority leaves the current one untouched.
func (i *Issue) AssignTo(staff *Staff, priority string) {
	i.Assigned = true
	i.AssignedToID = &staff.ID
	i.AssignedTo = staff

	if p := strings.ToUpper(strings.TrimSpace(priority)); p != "" {
		i.Priority = &p
	}
}

func (i *Issue) Unassign() {
	i.Assigned = false
	i.AssignedToID = nil
	i.AssignedTo = nil
}

func (i *Issue) IsCompleted() bool {
	return strings.EqualFold(i.Status, IssueStatusCompleted)
}

// MediaURLs returns photos followed by videos.
func (i *Issue) MediaURLs() []string {
	urls := make([]string, 0, len(i.PhotoURLs)+len(i.VideoURLs))
	urls = append(urls, i.PhotoURLs...)
	urls = append(urls, i.VideoURLs...)
	return urls
}

func IsCustomCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), CategoryCustom)
}

// NormalizeIssueStatus reports the canonical upper-case form and whether it is a known status.
func NormalizeIssueStatus(raw string) (string, bool) {
	status := strings.ToUpper(strings.TrimSpace(raw))
	switch status {
	case IssueStatusPending, IssueStatusInProgress, IssueStatusCompleted:
		return status, true
	default:
		return status, false
	}
}

// IssueStats is the per-status summary shown on the admin dashboard.
type IssueStats struct {
	Total      int64 `json:"total"`
	Incomplete int64 `json:"incomplete"`
	Completed  int64 `json:"completed"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
}

// NearbyIssue is an issue with its great-circle distance to the query point.
type NearbyIssue struct {
	Issue
	DistanceMeters float64 `gorm:"-" json:"distance_meters"`
}
