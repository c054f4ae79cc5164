package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"issue-service/internal/auth"
	"issue-service/internal/model"
	"issue-service/internal/utils"
)

type StaffServiceDeps struct {
	Tx              Transactor
	Staff           StaffStore
	Issues          IssueStore
	Outbox          OutboxStore
	Dispatcher      EventDispatcher
	Identity        IdentityProvider
	Tokens          TokenIssuer
	DefaultPassword string
}

type StaffService struct {
	tx              Transactor
	staff           StaffStore
	issues          IssueStore
	outbox          OutboxStore
	dispatcher      EventDispatcher
	identity        IdentityProvider
	tokens          TokenIssuer
	defaultPassword string
	now             func() time.Time
	log             zerolog.Logger
}

func NewStaffService(deps StaffServiceDeps, log zerolog.Logger) *StaffService {
	return &StaffService{
		tx:              deps.Tx,
		staff:           deps.Staff,
		issues:          deps.Issues,
		outbox:          deps.Outbox,
		dispatcher:      deps.Dispatcher,
		identity:        deps.Identity,
		tokens:          deps.Tokens,
		defaultPassword: deps.DefaultPassword,
		now:             time.Now,
		log:             log.With().Str("component", "staff").Logger(),
	}
}

type CreateStaffInput struct {
	StaffID   string
	Name      string
	Email     string
	DateAdded string
}

func (s *StaffService) Create(ctx context.Context, input CreateStaffInput) (*model.Staff, error) {
	staffID := strings.TrimSpace(input.StaffID)
	name := strings.TrimSpace(input.Name)
	email := utils.NormalizeEmail(input.Email)

	var violations []string
	if staffID == "" {
		violations = append(violations, "staff id is required")
	}
	if name == "" {
		violations = append(violations, "name is required")
	}
	if email == "" {
		violations = append(violations, "email is required")
	} else if len(validateReporterEmail(email)) > 0 {
		violations = append(violations, "email is not a valid address")
	}

	var dateAdded *time.Time
	if raw := strings.TrimSpace(input.DateAdded); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			violations = append(violations, "date added must use the YYYY-MM-DD format")
		} else {
			dateAdded = &parsed
		}
	}
	if len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	exists, err := s.staff.ExistsByStaffID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: staff id %s already exists", ErrConflict, staffID)
	}
	exists, err = s.staff.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email %s is already used by another staff member", ErrConflict, email)
	}

	hash, err := auth.HashPassword(s.defaultPassword)
	if err != nil {
		return nil, err
	}

	staff := &model.Staff{
		StaffID:         staffID,
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		Role:            model.RoleStaff,
		CredentialState: model.CredentialDefaultPending,
		DateAdded:       dateAdded,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, err
	}

	s.linkIdentity(ctx, staff)

	s.log.Info().Str("staff_id", staff.StaffID).Msg("staff created")
	return staff, nil
}

// linkIdentity creates the external account for staff lacking one. Failures are logged only.
func (s *StaffService) linkIdentity(ctx context.Context, staff *model.Staff) bool {
	if !s.identity.Enabled() || staff.FirebaseUID != nil {
		return false
	}

	uid, err := s.identity.CreateAccount(ctx, staff.Email, staff.StaffID)
	if err != nil {
		s.log.Warn().Err(err).Str("staff_id", staff.StaffID).Msg("failed to create identity account")
		return false
	}

	staff.FirebaseUID = &uid
	if err := s.staff.Save(ctx, staff); err != nil {
		s.log.Warn().Err(err).Str("staff_id", staff.StaffID).Msg("failed to store identity link")
		return false
	}
	return true
}

func (s *StaffService) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return staff, nil
}

func (s *StaffService) List(ctx context.Context) ([]model.Staff, error) {
	return s.staff.List(ctx)
}

func (s *StaffService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*model.Staff, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name is required")
	}

	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	staff.Name = name
	if err := s.staff.Save(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *StaffService) IncompleteReportsCount(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := s.staff.GetByID(ctx, id); err != nil {
		return 0, notFound(err)
	}
	return s.issues.CountIncompleteByStaff(ctx, id)
}

// CanDelete is true when no issue assigned to the staff member is still open.
func (s *StaffService) CanDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := s.IncompleteReportsCount(ctx, id)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Delete refuses while the staff member holds unfinished issues. Otherwise it releases their
// issues, removes the row and schedules removal of the external identity.
func (s *StaffService) Delete(ctx context.Context, id uuid.UUID) error {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	incomplete, err := s.issues.CountIncompleteByStaff(ctx, id)
	if err != nil {
		return err
	}
	if incomplete > 0 {
		return &StaffDeletionBlockedError{Staff: staff.DisplayName(), Incomplete: incomplete}
	}

	var events []model.OutboxEvent
	var released, detached int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if released, err = s.issues.UnassignIncompleteByStaff(ctx, id); err != nil {
			return err
		}
		if detached, err = s.issues.DetachStaffFromCompleted(ctx, id); err != nil {
			return err
		}
		if staff.FirebaseUID != nil && *staff.FirebaseUID != "" {
			events = append(events, model.NewIdentityDeleteEvent(*staff.FirebaseUID))
			if err := s.outbox.Enqueue(ctx, events); err != nil {
				return err
			}
		}
		return s.staff.Delete(ctx, id)
	})
	if err != nil {
		return notFound(err)
	}

	s.dispatcher.Dispatch(ctx, events)

	s.log.Info().
		Str("staff_id", staff.StaffID).
		Int64("released", released).
		Int64("detached", detached).
		Msg("staff deleted")
	return nil
}

type LoginResult struct {
	Token              string       `json:"token"`
	ExpiresAt          time.Time    `json:"expires_at"`
	MustChangePassword bool         `json:"must_change_password"`
	Staff              *model.Staff `json:"staff"`
}

// Login checks the password against the stored hash. While the credential is DEFAULT_PENDING
// that hash is the default password's, so the default stops working once a password is set.
func (s *StaffService) Login(ctx context.Context, staffID, password string) (*LoginResult, error) {
	staff, err := s.staff.GetByStaffID(ctx, strings.TrimSpace(staffID))
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(password, staff.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(model.Principal{
		SubjectID: staff.ID,
		Role:      model.RoleStaff,
		StaffID:   staff.StaffID,
		Email:     staff.Email,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:              token,
		ExpiresAt:          expiresAt,
		MustChangePassword: staff.CredentialState == model.CredentialDefaultPending,
		Staff:              staff,
	}, nil
}

func (s *StaffService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	if err := auth.CheckPassword(currentPassword, staff.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	return s.setPassword(ctx, staff, newPassword)
}

// UpdatePasswordByEmail is the administrative path; no current password is needed.
func (s *StaffService) UpdatePasswordByEmail(ctx context.Context, email, newPassword string) error {
	staff, err := s.staff.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return notFound(err)
	}
	return s.setPassword(ctx, staff, newPassword)
}

func (s *StaffService) setPassword(ctx context.Context, staff *model.Staff, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return newValidationError(err.Error())
	}
	if newPassword == s.defaultPassword {
		return ErrDefaultCredentialReuse
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := s.now()
	staff.PasswordHash = hash
	staff.CredentialState = model.CredentialUserSet
	staff.PasswordResetCompletedAt = &now
	if err := s.staff.Save(ctx, staff); err != nil {
		return err
	}

	if s.identity.Enabled() && staff.FirebaseUID != nil {
		if err := s.identity.UpdatePassword(ctx, *staff.FirebaseUID, newPassword); err != nil {
			s.log.Warn().Err(err).Str("staff_id", staff.StaffID).Msg("failed to sync password to identity provider")
		}
	}

	s.log.Info().Str("staff_id", staff.StaffID).Msg("staff password changed")
	return nil
}

// RequestPasswordReset records the request and returns the provider's reset link when available.
func (s *StaffService) RequestPasswordReset(ctx context.Context, id uuid.UUID) (string, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return "", notFound(err)
	}

	now := s.now()
	staff.PasswordResetRequestedAt = &now
	if err := s.staff.Save(ctx, staff); err != nil {
		return "", err
	}

	if !s.identity.Enabled() {
		return "", nil
	}
	link, err := s.identity.PasswordResetLink(ctx, staff.Email)
	if err != nil {
		s.log.Warn().Err(err).Str("staff_id", staff.StaffID).Msg("failed to generate password reset link")
		return "", nil
	}
	return link, nil
}

type IdentitySyncReport struct {
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// SyncIdentities creates external accounts for staff that have none yet.
func (s *StaffService) SyncIdentities(ctx context.Context) (*IdentitySyncReport, error) {
	if !s.identity.Enabled() {
		return nil, fmt.Errorf("%w: identity provider is not configured", ErrUnavailable)
	}

	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &IdentitySyncReport{}
	for i := range staff {
		if staff[i].FirebaseUID != nil {
			report.Skipped++
			continue
		}
		if s.linkIdentity(ctx, &staff[i]) {
			report.Synced++
		} else {
			report.Failed++
		}
	}

	s.log.Info().
		Int("synced", report.Synced).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("identity sync finished")
	return report, nil
}

// SeedDefaults creates the given staff when the staff table is empty.
func (s *StaffService) SeedDefaults(ctx context.Context, seeds []CreateStaffInput) error {
	count, err := s.staff.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, seed := range seeds {
		if _, err := s.Create(ctx, seed); err != nil {
			return fmt.Errorf("seed staff %s: %w", seed.StaffID, err)
		}
	}
	s.log.Info().Int("count", len(seeds)).Msg("default staff seeded")
	return nil
}

func DefaultStaffSeeds(emailDomain string) []CreateStaffInput {
	return []CreateStaffInput{
		{StaffID: "OM01", Name: "Operations Staff 01", Email: "om01" + emailDomain},
		{StaffID: "OM02", Name: "Operations Staff 02", Email: "om02" + emailDomain},
	}
}
