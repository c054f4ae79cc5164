package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"issue-service/internal/model"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(ctx context.Context, staff *model.Staff) error {
	return conn(ctx, r.db).Create(staff).Error
}

func (r *StaffRepository) Save(ctx context.Context, staff *model.Staff) error {
	return conn(ctx, r.db).Save(staff).Error
}

func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *StaffRepository) GetByStaffID(ctx context.Context, staffID string) (*model.Staff, error) {
	return r.first(ctx, "staff_id = ?", staffID)
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *StaffRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Staff, error) {
	var staff model.Staff
	err := conn(ctx, r.db).Where(query, args...).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &staff, nil
}

func (r *StaffRepository) ExistsByStaffID(ctx context.Context, staffID string) (bool, error) {
	return r.exists(ctx, "staff_id = ?", staffID)
}

func (r *StaffRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *StaffRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&model.Staff{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *StaffRepository) List(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	err := conn(ctx, r.db).Order("staff_id ASC").Find(&staff).Error
	return staff, err
}

func (r *StaffRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Staff{}).Count(&count).Error
	return count, err
}

func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&model.Staff{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
