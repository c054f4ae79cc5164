package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OutboxKind string

const (
	OutboxMediaDelete    OutboxKind = "MEDIA_DELETE"
	OutboxIdentityDelete OutboxKind = "IDENTITY_DELETE"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxDone    OutboxStatus = "DONE"
	OutboxDead    OutboxStatus = "DEAD"
)

// OutboxEvent is a side effect recorded in the same transaction as the change that caused it.
type OutboxEvent struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Kind        OutboxKind        `gorm:"type:varchar(32);not null" json:"kind"`
	Payload     datatypes.JSONMap `gorm:"type:jsonb;not null" json:"payload"`
	Status      OutboxStatus      `gorm:"type:varchar(16);not null;default:PENDING;index" json:"status"`
	Attempts    int               `gorm:"not null;default:0" json:"attempts"`
	LastError   *string           `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = OutboxPending
	}
	return nil
}

func NewMediaDeleteEvent(url string) OutboxEvent {
	return OutboxEvent{Kind: OutboxMediaDelete, Payload: datatypes.JSONMap{"url": url}}
}

func NewIdentityDeleteEvent(externalID string) OutboxEvent {
	return OutboxEvent{Kind: OutboxIdentityDelete, Payload: datatypes.JSONMap{"external_id": externalID}}
}

// PayloadString reads a string field from the payload.
func (e *OutboxEvent) PayloadString(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}
