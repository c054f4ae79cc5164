package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"issue-service/internal/model"
	"issue-service/internal/repository"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type IssueStore interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.IssueListFilter) ([]model.Issue, int64, error)
	ListNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Issue, error)
	CountIncompleteByStaff(ctx context.Context, staffID uuid.UUID) (int64, error)
	UnassignIncompleteByStaff(ctx context.Context, staffID uuid.UUID) (int64, error)
	DetachStaffFromCompleted(ctx context.Context, staffID uuid.UUID) (int64, error)
	Stats(ctx context.Context) (model.IssueStats, error)
}

type UpdateStore interface {
	Create(ctx context.Context, update *model.Update) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Update, error)
	Save(ctx context.Context, update *model.Update) error
	ListByIssueID(ctx context.Context, issueID uuid.UUID) ([]model.Update, error)
	DeleteByIssueID(ctx context.Context, issueID uuid.UUID) (int64, error)
}

type RemarkStore interface {
	Create(ctx context.Context, remark *model.IssueRemark) error
	Save(ctx context.Context, remark *model.IssueRemark) error
	GetByIssueID(ctx context.Context, issueID uuid.UUID) (*model.IssueRemark, error)
	ExistsForIssue(ctx context.Context, issueID uuid.UUID) (bool, error)
	ListByIssueIDs(ctx context.Context, issueIDs []uuid.UUID) ([]model.IssueRemark, error)
	ListNewUnviewed(ctx context.Context) ([]model.IssueRemark, error)
	ListAll(ctx context.Context) ([]model.IssueRemark, error)
	DeleteByIssueID(ctx context.Context, issueID uuid.UUID) (int64, error)
}

type RemarkHistoryStore interface {
	Append(ctx context.Context, entry *model.IssueRemarkHistory) error
	ListByIssueID(ctx context.Context, issueID uuid.UUID) ([]model.IssueRemarkHistory, error)
	DeleteByIssueID(ctx context.Context, issueID uuid.UUID) (int64, error)
}

type StaffStore interface {
	Create(ctx context.Context, staff *model.Staff) error
	Save(ctx context.Context, staff *model.Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	GetByStaffID(ctx context.Context, staffID string) (*model.Staff, error)
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)
	ExistsByStaffID(ctx context.Context, staffID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.Staff, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AdminStore interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BackfillCreatedAt(ctx context.Context, at time.Time) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Save(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type OutboxStore interface {
	Enqueue(ctx context.Context, events []model.OutboxEvent) error
}

// EventDispatcher runs outbox events right after the transaction that recorded them commits.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []model.OutboxEvent)
}

// Storage keeps uploaded media. Delete of an unknown url is not an error.
type Storage interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type Notifier interface {
	NotifyStatusChange(ctx context.Context, deviceToken string, issueID uuid.UUID, status, comment string) error
	SendTest(ctx context.Context, deviceToken, title, body string) error
}

// IdentityProvider mirrors staff accounts in an external identity service. Callers check
// Enabled and skip every call when it is false.
type IdentityProvider interface {
	Enabled() bool
	CreateAccount(ctx context.Context, email, staffID string) (string, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, externalID, password string) error
	DeleteAccount(ctx context.Context, externalID string) error
}

type TokenIssuer interface {
	Issue(principal model.Principal) (string, time.Time, error)
}
