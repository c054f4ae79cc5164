package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"issue-service/internal/model"
)

type UpdateRepository struct {
	db *gorm.DB
}

func NewUpdateRepository(db *gorm.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

func (r *UpdateRepository) Create(ctx context.Context, update *model.Update) error {
	return conn(ctx, r.db).Create(update).Error
}

func (r *UpdateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Update, error) {
	var update model.Update
	err := conn(ctx, r.db).Where("id = ?", id).First(&update).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &update, nil
}

func (r *UpdateRepository) Save(ctx context.Context, update *model.Update) error {
	return conn(ctx, r.db).Save(update).Error
}

func (r *UpdateRepository) ListByIssueID(ctx context.Context, issueID uuid.UUID) ([]model.Update, error) {
	var updates []model.Update
	err := conn(ctx, r.db).
		Where("issue_id = ?", issueID).
		Order("update_time ASC").
		Find(&updates).Error
	return updates, err
}

func (r *UpdateRepository) DeleteByIssueID(ctx context.Context, issueID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("issue_id = ?", issueID).Delete(&model.Update{})
	return result.RowsAffected, result.Error
}
