package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"issue-service/internal/model"
)

type IssueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

func (r *IssueRepository) Create(ctx context.Context, issue *model.Issue) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(issue).Error
}

func (r *IssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	var issue model.Issue
	err := conn(ctx, r.db).
		Preload("ReportedBy").
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (r *IssueRepository) Update(ctx context.Context, issue *model.Issue) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(issue).Error
}

func (r *IssueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&model.Issue{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type IssueListFilter struct {
	Status       *string
	Assigned     *bool
	AssignedToID *uuid.UUID
	Page         int
	Size         int
}

func (r *IssueRepository) List(ctx context.Context, filter IssueListFilter) ([]model.Issue, int64, error) {
	scoped := func() *gorm.DB {
		query := conn(ctx, r.db).Model(&model.Issue{})
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Assigned != nil {
			query = query.Where("assigned = ?", *filter.Assigned)
		}
		if filter.AssignedToID != nil {
			query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var issues []model.Issue
	err := scoped().
		Preload("ReportedBy").
		Preload("AssignedTo").
		Order("created_at DESC").
		Offset(filter.Page * filter.Size).
		Limit(filter.Size).
		Find(&issues).Error
	if err != nil {
		return nil, 0, err
	}

	return issues, total, nil
}

// ListNearby uses a geography distance predicate so the radius is in meters on the sphere.
func (r *IssueRepository) ListNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Issue, error) {
	var issues []model.Issue
	err := conn(ctx, r.db).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("ST_DWithin(ST_MakePoint(longitude, latitude)::geography, ST_MakePoint(?, ?)::geography, ?)", lon, lat, radiusMeters).
		Find(&issues).Error
	return issues, err
}

func (r *IssueRepository) CountIncompleteByStaff(ctx context.Context, staffID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Issue{}).
		Where("assigned_to_id = ? AND UPPER(status) <> ?", staffID, model.IssueStatusCompleted).
		Count(&count).Error
	return count, err
}

// UnassignIncompleteByStaff returns unfinished issues of the staff member to the unassigned pool.
func (r *IssueRepository) UnassignIncompleteByStaff(ctx context.Context, staffID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Model(&model.Issue{}).
		Where("assigned_to_id = ? AND UPPER(status) <> ?", staffID, model.IssueStatusCompleted).
		Updates(map[string]interface{}{
			"assigned":       false,
			"assigned_to_id": nil,
		})
	return result.RowsAffected, result.Error
}

// DetachStaffFromCompleted clears the staff reference on completed issues. Assigned is cleared too
// so the assigned/assigned_to_id pair stays consistent.
func (r *IssueRepository) DetachStaffFromCompleted(ctx context.Context, staffID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Model(&model.Issue{}).
		Where("assigned_to_id = ? AND UPPER(status) = ?", staffID, model.IssueStatusCompleted).
		Updates(map[string]interface{}{
			"assigned":       false,
			"assigned_to_id": nil,
		})
	return result.RowsAffected, result.Error
}

func (r *IssueRepository) Stats(ctx context.Context) (model.IssueStats, error) {
	var stats model.IssueStats
	err := conn(ctx, r.db).Model(&model.Issue{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ?) AS pending,
			COUNT(*) FILTER (WHERE status = ?) AS in_progress,
			COUNT(*) FILTER (WHERE status = ?) AS completed`,
			model.IssueStatusPending, model.IssueStatusInProgress, model.IssueStatusCompleted).
		Scan(&stats).Error
	if err != nil {
		return model.IssueStats{}, err
	}
	stats.Incomplete = stats.Total - stats.Completed
	return stats, nil
}
