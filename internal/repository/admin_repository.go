package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"issue-service/internal/model"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return conn(ctx, r.db).Create(admin).Error
}

func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	err := conn(ctx, r.db).Where("id = ?", id).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	err := conn(ctx, r.db).Where("LOWER(email) = LOWER(?)", email).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	err := conn(ctx, r.db).Order("created_at ASC NULLS FIRST").Find(&admins).Error
	return admins, err
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Admin{}).Count(&count).Error
	return count, err
}

func (r *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Where("id = ?", id).Delete(&model.Admin{}).Error
}

// BackfillCreatedAt sets createdAt on rows that never had one.
func (r *AdminRepository) BackfillCreatedAt(ctx context.Context, at time.Time) (int64, error) {
	result := conn(ctx, r.db).Model(&model.Admin{}).
		Where("created_at IS NULL").
		Update("created_at", at)
	return result.RowsAffected, result.Error
}
