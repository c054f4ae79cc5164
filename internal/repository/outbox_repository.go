package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"issue-service/internal/model"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, events []model.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&events).Error
}

// ClaimPending locks a batch of pending events so concurrent relays skip them.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", model.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *OutboxRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return conn(ctx, r.db).Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.OutboxDone,
			"processed_at": now,
			"attempts":     gorm.Expr("attempts + 1"),
			"last_error":   nil,
		}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, cause string, dead bool) error {
	updates := map[string]interface{}{
		"attempts":   attempts,
		"last_error": cause,
	}
	if dead {
		updates["status"] = model.OutboxDead
		updates["processed_at"] = time.Now()
	}
	return conn(ctx, r.db).Model(&model.OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
}
