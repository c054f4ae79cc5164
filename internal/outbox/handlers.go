package outbox

import (
	"context"
	"fmt"

	"issue-service/internal/model"
)

type MediaDeleter interface {
	Delete(ctx context.Context, url string) error
}

type IdentityDeleter interface {
	Enabled() bool
	DeleteAccount(ctx context.Context, externalID string) error
}

func MediaDelete(storage MediaDeleter) Handler {
	return func(ctx context.Context, event model.OutboxEvent) error {
		url := event.PayloadString("url")
		if url == "" {
			return fmt.Errorf("media delete event without url")
		}
		return storage.Delete(ctx, url)
	}
}

// IdentityDelete succeeds without doing anything when the identity provider is disabled.
func IdentityDelete(identity IdentityDeleter) Handler {
	return func(ctx context.Context, event model.OutboxEvent) error {
		if !identity.Enabled() {
			return nil
		}
		externalID := event.PayloadString("external_id")
		if externalID == "" {
			return fmt.Errorf("identity delete event without external_id")
		}
		return identity.DeleteAccount(ctx, externalID)
	}
}
