package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"issue-service/internal/model"
)

type RemarkService struct {
	tx      Transactor
	issues  IssueStore
	remarks RemarkStore
	history RemarkHistoryStore
	log     zerolog.Logger
}

func NewRemarkService(tx Transactor, issues IssueStore, remarks RemarkStore, history RemarkHistoryStore, log zerolog.Logger) *RemarkService {
	return &RemarkService{
		tx:      tx,
		issues:  issues,
		remarks: remarks,
		history: history,
		log:     log.With().Str("component", "remarks").Logger(),
	}
}

// CreateRemark inserts the issue's only remark and records a CREATED entry.
func (s *RemarkService) CreateRemark(ctx context.Context, issue *model.Issue, remarkType model.RemarkType, createdBy *uuid.UUID) (*model.IssueRemark, error) {
	var remark *model.IssueRemark
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.remarks.ExistsForIssue(ctx, issue.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrRemarkExists
		}

		remark, err = s.insertRemark(ctx, issue.ID, issue.Status, remarkType, createdBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return remark, nil
}

// CreateInitialRemarkForNewIssue seeds a NEW remark with no creator. It does nothing when the
// issue already has a remark.
func (s *RemarkService) CreateInitialRemarkForNewIssue(ctx context.Context, issue *model.Issue) error {
	_, err := s.CreateRemark(ctx, issue, model.RemarkTypeNew, nil)
	if errors.Is(err, ErrRemarkExists) {
		return nil
	}
	return err
}

// UpdateRemark sets the remark for an issue, creating it when absent. The remark is always
// reset to unviewed.
func (s *RemarkService) UpdateRemark(ctx context.Context, issueID uuid.UUID, remarkType model.RemarkType, status string, updatedBy *uuid.UUID) (*model.IssueRemark, error) {
	if err := ValidateStatusRemark(status, remarkType); err != nil {
		return nil, err
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, notFound(err)
	}

	var remark *model.IssueRemark
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.remarks.GetByIssueID(ctx, issueID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			remark, err = s.insertRemark(ctx, issue.ID, status, remarkType, updatedBy)
			return err
		}
		if err != nil {
			return err
		}

		existing.RemarkType = remarkType
		existing.IsViewed = false
		if err := s.remarks.Save(ctx, existing); err != nil {
			return err
		}
		remark = existing

		return s.appendHistory(ctx, issueID, remarkType, status, updatedBy, model.RemarkActionUpdated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("issue_id", issueID.String()).
		Str("remark", string(remarkType)).
		Str("status", status).
		Msg("remark updated")

	return remark, nil
}

// MarkRemarkAsViewed only affects an unviewed NEW remark; any other remark is returned as is and
// an issue without a remark yields nil.
func (s *RemarkService) MarkRemarkAsViewed(ctx context.Context, issueID uuid.UUID, viewedBy *uuid.UUID) (*model.IssueRemark, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, notFound(err)
	}

	remark, err := s.remarks.GetByIssueID(ctx, issueID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if remark.RemarkType != model.RemarkTypeNew || remark.IsViewed {
		return remark, nil
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		remark.IsViewed = true
		if err := s.remarks.Save(ctx, remark); err != nil {
			return err
		}
		return s.appendHistory(ctx, issueID, remark.RemarkType, issue.Status, viewedBy, model.RemarkActionViewed)
	})
	if err != nil {
		return nil, err
	}
	return remark, nil
}

func (s *RemarkService) GetRemark(ctx context.Context, issueID uuid.UUID) (*model.IssueRemark, error) {
	remark, err := s.remarks.GetByIssueID(ctx, issueID)
	if err != nil {
		return nil, notFound(err)
	}
	return remark, nil
}

func (s *RemarkService) GetRemarksByIssueIDs(ctx context.Context, issueIDs []uuid.UUID) (map[uuid.UUID]model.IssueRemark, error) {
	remarks, err := s.remarks.ListByIssueIDs(ctx, issueIDs)
	if err != nil {
		return nil, err
	}
	byIssue := make(map[uuid.UUID]model.IssueRemark, len(remarks))
	for _, r := range remarks {
		byIssue[r.IssueID] = r
	}
	return byIssue, nil
}

func (s *RemarkService) GetNewUnviewedRemarks(ctx context.Context) ([]model.IssueRemark, error) {
	return s.remarks.ListNewUnviewed(ctx)
}

func (s *RemarkService) GetAllRemarks(ctx context.Context) ([]model.IssueRemark, error) {
	return s.remarks.ListAll(ctx)
}

func (s *RemarkService) GetHistory(ctx context.Context, issueID uuid.UUID) ([]model.IssueRemarkHistory, error) {
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, notFound(err)
	}
	return s.history.ListByIssueID(ctx, issueID)
}

func (s *RemarkService) insertRemark(ctx context.Context, issueID uuid.UUID, status string, remarkType model.RemarkType, createdBy *uuid.UUID) (*model.IssueRemark, error) {
	remark := &model.IssueRemark{
		IssueID:     issueID,
		RemarkType:  remarkType,
		IsViewed:    false,
		CreatedByID: createdBy,
	}
	if err := s.remarks.Create(ctx, remark); err != nil {
		return nil, err
	}
	if err := s.appendHistory(ctx, issueID, remarkType, status, createdBy, model.RemarkActionCreated); err != nil {
		return nil, err
	}
	return remark, nil
}

func (s *RemarkService) appendHistory(ctx context.Context, issueID uuid.UUID, remarkType model.RemarkType, status string, changedBy *uuid.UUID, action model.RemarkAction) error {
	return s.history.Append(ctx, &model.IssueRemarkHistory{
		IssueID:      issueID,
		RemarkType:   remarkType,
		StatusAtTime: status,
		ChangedByID:  changedBy,
		Action:       action,
	})
}
