package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"issue-service/internal/model"
	"issue-service/internal/utils"
)

const (
	testNotificationTitle = "Test Notification"
	testNotificationBody  = "Notifications are working for your facilities reports."
)

type UserService struct {
	users    UserStore
	notifier Notifier
	domain   string
	log      zerolog.Logger
}

func NewUserService(users UserStore, notifier Notifier, emailDomain string, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		notifier: notifier,
		domain:   strings.ToLower(emailDomain),
		log:      log.With().Str("component", "users").Logger(),
	}
}

// Register finds or creates a user signing in through the mobile app. Only institutional
// addresses are accepted here.
func (s *UserService) Register(ctx context.Context, username, email string) (*model.User, error) {
	email = utils.NormalizeEmail(email)
	if !utils.HasEmailDomain(email, s.domain) {
		return nil, newValidationError(fmt.Sprintf("email must end with %s", s.domain))
	}
	return s.ResolveReporter(ctx, email, username)
}

// ResolveReporter returns the user with this email, creating one when missing.
func (s *UserService) ResolveReporter(ctx context.Context, email, username string) (*model.User, error) {
	email = utils.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(notFound(err), ErrNotFound) {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = utils.EmailLocalPart(email)
	}

	user = &model.User{Username: username, Email: email, Role: model.RoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", email).Msg("user created")
	return user, nil
}

func (s *UserService) UpdateFCMToken(ctx context.Context, email, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newValidationError("fcm token is required")
	}

	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}

	user.FCMToken = &token
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) RemoveFCMToken(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return notFound(err)
	}

	user.FCMToken = nil
	return s.users.Save(ctx, user)
}

func (s *UserService) SendTestNotification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return notFound(err)
	}
	if !user.HasFCMToken() {
		return fmt.Errorf("%w: %s", ErrConflict, notificationNoToken)
	}

	if err := s.notifier.SendTest(ctx, *user.FCMToken, testNotificationTitle, testNotificationBody); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
