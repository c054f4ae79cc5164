package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"issue-service/internal/model"
)

type RemarkRepository struct {
	db *gorm.DB
}

func NewRemarkRepository(db *gorm.DB) *RemarkRepository {
	return &RemarkRepository{db: db}
}

func (r *RemarkRepository) Create(ctx context.Context, remark *model.IssueRemark) error {
	return conn(ctx, r.db).Create(remark).Error
}

func (r *RemarkRepository) Save(ctx context.Context, remark *model.IssueRemark) error {
	return conn(ctx, r.db).Save(remark).Error
}

func (r *RemarkRepository) GetByIssueID(ctx context.Context, issueID uuid.UUID) (*model.IssueRemark, error) {
	var remark model.IssueRemark
	err := conn(ctx, r.db).Where("issue_id = ?", issueID).First(&remark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &remark, nil
}

func (r *RemarkRepository) ExistsForIssue(ctx context.Context, issueID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.IssueRemark{}).Where("issue_id = ?", issueID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RemarkRepository) ListByIssueIDs(ctx context.Context, issueIDs []uuid.UUID) ([]model.IssueRemark, error) {
	var remarks []model.IssueRemark
	if len(issueIDs) == 0 {
		return remarks, nil
	}
	err := conn(ctx, r.db).Where("issue_id IN ?", issueIDs).Find(&remarks).Error
	return remarks, err
}

func (r *RemarkRepository) ListNewUnviewed(ctx context.Context) ([]model.IssueRemark, error) {
	var remarks []model.IssueRemark
	err := conn(ctx, r.db).
		Where("remark_type = ? AND is_viewed = ?", model.RemarkTypeNew, false).
		Order("created_at DESC").
		Find(&remarks).Error
	return remarks, err
}

func (r *RemarkRepository) ListAll(ctx context.Context) ([]model.IssueRemark, error) {
	var remarks []model.IssueRemark
	err := conn(ctx, r.db).Order("updated_at DESC").Find(&remarks).Error
	return remarks, err
}

func (r *RemarkRepository) DeleteByIssueID(ctx context.Context, issueID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("issue_id = ?", issueID).Delete(&model.IssueRemark{})
	return result.RowsAffected, result.Error
}

type RemarkHistoryRepository struct {
	db *gorm.DB
}

func NewRemarkHistoryRepository(db *gorm.DB) *RemarkHistoryRepository {
	return &RemarkHistoryRepository{db: db}
}

func (r *RemarkHistoryRepository) Append(ctx context.Context, entry *model.IssueRemarkHistory) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *RemarkHistoryRepository) ListByIssueID(ctx context.Context, issueID uuid.UUID) ([]model.IssueRemarkHistory, error) {
	var entries []model.IssueRemarkHistory
	err := conn(ctx, r.db).
		Where("issue_id = ?", issueID).
		Order("changed_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *RemarkHistoryRepository) DeleteByIssueID(ctx context.Context, issueID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("issue_id = ?", issueID).Delete(&model.IssueRemarkHistory{})
	return result.RowsAffected, result.Error
}
