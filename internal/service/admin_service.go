package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"issue-service/internal/model"
	"issue-service/internal/utils"
)

// adminBackfillAge is how far back a missing admin creation time is assumed to be.
const adminBackfillAge = 30 * 24 * time.Hour

type AdminService struct {
	admins AdminStore
	tokens TokenIssuer
	domain string
	now    func() time.Time
	log    zerolog.Logger
}

func NewAdminService(admins AdminStore, tokens TokenIssuer, emailDomain string, log zerolog.Logger) *AdminService {
	return &AdminService{
		admins: admins,
		tokens: tokens,
		domain: strings.ToLower(emailDomain),
		now:    time.Now,
		log:    log.With().Str("component", "admins").Logger(),
	}
}

type AdminLoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     *model.Admin `json:"admin"`
}

func (s *AdminService) Login(ctx context.Context, email string) (*AdminLoginResult, error) {
	email = utils.NormalizeEmail(email)
	if !utils.HasEmailDomain(email, s.domain) {
		return nil, fmt.Errorf("%w: only %s emails can sign in as admin", ErrPermissionDenied, s.domain)
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(model.Principal{
		SubjectID: admin.ID,
		Role:      model.RoleAdmin,
		Email:     admin.Email,
	})
	if err != nil {
		return nil, err
	}
	return &AdminLoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Create adds an admin. The username defaults to the local part of the email.
func (s *AdminService) Create(ctx context.Context, email, username string) (*model.Admin, error) {
	email = utils.NormalizeEmail(email)
	if !utils.HasEmailDomain(email, s.domain) {
		return nil, newValidationError(fmt.Sprintf("admin email must end with %s", s.domain))
	}

	_, err := s.admins.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: admin %s already exists", ErrConflict, email)
	}
	if !errors.Is(notFound(err), ErrNotFound) {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = utils.EmailLocalPart(email)
	}

	admin := &model.Admin{Email: email, Username: username}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", email).Msg("admin created")
	return admin, nil
}

func (s *AdminService) List(ctx context.Context) ([]model.Admin, error) {
	return s.admins.List(ctx)
}

func (s *AdminService) Get(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return admin, nil
}

func (s *AdminService) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}
	return admin, nil
}

// IsAdminEmail reports whether the email belongs to a registered admin.
func (s *AdminService) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	if !utils.HasEmailDomain(email, s.domain) {
		return false, nil
	}
	_, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AdminService) Delete(ctx context.Context, id uuid.UUID) error {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	count, err := s.admins.Count(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastAdmin
	}

	if err := s.admins.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("email", admin.Email).Msg("admin deleted")
	return nil
}

// BackfillCreatedAt gives admins without a creation time one dated 30 days back.
func (s *AdminService) BackfillCreatedAt(ctx context.Context) (int64, error) {
	fixed, err := s.admins.BackfillCreatedAt(ctx, s.now().Add(-adminBackfillAge))
	if err != nil {
		return 0, err
	}
	if fixed > 0 {
		s.log.Info().Int64("admins", fixed).Msg("backfilled admin creation time")
	}
	return fixed, nil
}
