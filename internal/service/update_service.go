package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"issue-service/internal/model"
)

const notificationNoToken = "User FCM token not available"

type UpdateService struct {
	tx       Transactor
	issues   IssueStore
	updates  UpdateStore
	notifier Notifier
	media    uploader
	log      zerolog.Logger
}

func NewUpdateService(tx Transactor, issues IssueStore, updates UpdateStore, storage Storage, notifier Notifier, log zerolog.Logger) *UpdateService {
	log = log.With().Str("component", "updates").Logger()
	return &UpdateService{
		tx:       tx,
		issues:   issues,
		updates:  updates,
		notifier: notifier,
		media:    uploader{storage: storage, log: log},
		log:      log,
	}
}

type CreateUpdateInput struct {
	IssueID uuid.UUID
	Status  string
	Comment string
	Photos  []MediaFile
}

// UpdateResult reports the persisted update and whether the reporter was notified.
type UpdateResult struct {
	Update            *model.Update `json:"update"`
	IssueStatus       string        `json:"issue_status"`
	NotificationSent  bool          `json:"notification_sent"`
	NotificationError string        `json:"notification_error,omitempty"`
}

func (s *UpdateService) Create(ctx context.Context, principal model.Principal, input CreateUpdateInput) (*UpdateResult, error) {
	status, known := model.NormalizeIssueStatus(input.Status)

	var violations []string
	if !known {
		violations = append(violations, "status must be one of PENDING, IN_PROGRESS, COMPLETED")
	}
	violations = append(violations, validatePhotos(input.Photos)...)
	if len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	issue, err := s.issues.GetByID(ctx, input.IssueID)
	if err != nil {
		return nil, notFound(err)
	}
	if !canUpdateIssue(principal, issue) {
		return nil, ErrPermissionDenied
	}

	photoURLs, err := s.media.uploadAll(ctx, updatePhotoFolder, input.Photos)
	if err != nil {
		s.media.discard(ctx, photoURLs)
		return nil, err
	}

	update := &model.Update{PhotoURLs: pq.StringArray(photoURLs)}
	if comment := strings.TrimSpace(input.Comment); comment != "" {
		update.Comment = &comment
	}
	update.ApplyStatus(issue, status)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.updates.Create(ctx, update); err != nil {
			return err
		}
		return s.issues.Update(ctx, issue)
	})
	if err != nil {
		s.media.discard(ctx, photoURLs)
		return nil, err
	}

	s.log.Info().
		Str("issue_id", issue.ID.String()).
		Str("status", status).
		Msg("issue update recorded")

	return s.notify(ctx, issue, update), nil
}

// ChangeStatus rewrites the status of an existing update and of its issue.
func (s *UpdateService) ChangeStatus(ctx context.Context, principal model.Principal, updateID uuid.UUID, rawStatus string) (*UpdateResult, error) {
	status, known := model.NormalizeIssueStatus(rawStatus)
	if !known {
		return nil, newValidationError("status must be one of PENDING, IN_PROGRESS, COMPLETED")
	}

	update, err := s.updates.GetByID(ctx, updateID)
	if err != nil {
		return nil, notFound(err)
	}
	issue, err := s.issues.GetByID(ctx, update.IssueID)
	if err != nil {
		return nil, notFound(err)
	}
	if !canUpdateIssue(principal, issue) {
		return nil, ErrPermissionDenied
	}

	update.ApplyStatus(issue, status)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.updates.Save(ctx, update); err != nil {
			return err
		}
		return s.issues.Update(ctx, issue)
	})
	if err != nil {
		return nil, err
	}

	return s.notify(ctx, issue, update), nil
}

func (s *UpdateService) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Update, error) {
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, notFound(err)
	}
	return s.updates.ListByIssueID(ctx, issueID)
}

// notify runs after commit; its outcome is reported, never returned as an error.
func (s *UpdateService) notify(ctx context.Context, issue *model.Issue, update *model.Update) *UpdateResult {
	result := &UpdateResult{Update: update, IssueStatus: issue.Status}

	if issue.ReportedBy == nil || !issue.ReportedBy.HasFCMToken() {
		result.NotificationError = notificationNoToken
		return result
	}

	comment := ""
	if update.Comment != nil {
		comment = *update.Comment
	}

	err := s.notifier.NotifyStatusChange(ctx, *issue.ReportedBy.FCMToken, issue.ID, update.Status, comment)
	if err != nil {
		s.log.Warn().Err(err).Str("issue_id", issue.ID.String()).Msg("status notification failed")
		result.NotificationError = err.Error()
		return result
	}

	result.NotificationSent = true
	return result
}

// canUpdateIssue lets admins update any issue and staff only unassigned issues or their own.
func canUpdateIssue(principal model.Principal, issue *model.Issue) bool {
	if principal.IsAdmin() {
		return true
	}
	if principal.IsStaff() {
		return issue.AssignedToID == nil || *issue.AssignedToID == principal.SubjectID
	}
	return false
}
