package client

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
)

var ErrIdentityDisabled = errors.New("identity provider disabled")

// FirebaseIdentity keeps staff accounts in Firebase Authentication.
type FirebaseIdentity struct {
	client          *auth.Client
	defaultPassword string
}

func NewFirebaseIdentity(ctx context.Context, app *firebase.App, defaultPassword string) (*FirebaseIdentity, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing auth client: %w", err)
	}
	return &FirebaseIdentity{client: client, defaultPassword: defaultPassword}, nil
}

func (f *FirebaseIdentity) Enabled() bool {
	return true
}

// CreateAccount returns the existing account's uid when the email is already registered.
func (f *FirebaseIdentity) CreateAccount(ctx context.Context, email, staffID string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(f.defaultPassword).
		DisplayName(staffID).
		EmailVerified(false)

	record, err := f.client.CreateUser(ctx, params)
	if err == nil {
		return record.UID, nil
	}
	if !auth.IsEmailAlreadyExists(err) {
		return "", fmt.Errorf("create firebase user: %w", err)
	}

	existing, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("get firebase user: %w", err)
	}
	return existing.UID, nil
}

func (f *FirebaseIdentity) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := f.client.PasswordResetLink(ctx, email)
	if err != nil {
		return "", fmt.Errorf("generate reset link: %w", err)
	}
	return link, nil
}

func (f *FirebaseIdentity) UpdatePassword(ctx context.Context, externalID, password string) error {
	_, err := f.client.UpdateUser(ctx, externalID, (&auth.UserToUpdate{}).Password(password))
	if err != nil {
		return fmt.Errorf("update firebase password: %w", err)
	}
	return nil
}

// DeleteAccount treats an already missing account as deleted.
func (f *FirebaseIdentity) DeleteAccount(ctx context.Context, externalID string) error {
	if err := f.client.DeleteUser(ctx, externalID); err != nil && !auth.IsUserNotFound(err) {
		return fmt.Errorf("delete firebase user: %w", err)
	}
	return nil
}

type DisabledIdentity struct{}

func (DisabledIdentity) Enabled() bool { return false }

func (DisabledIdentity) CreateAccount(context.Context, string, string) (string, error) {
	return "", ErrIdentityDisabled
}

func (DisabledIdentity) PasswordResetLink(context.Context, string) (string, error) {
	return "", ErrIdentityDisabled
}

func (DisabledIdentity) UpdatePassword(context.Context, string, string) error {
	return ErrIdentityDisabled
}

func (DisabledIdentity) DeleteAccount(context.Context, string) error {
	return ErrIdentityDisabled
}
