package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"issue-service/internal/model"
)

const (
	androidIcon      = "ic_notification"
	androidChannelID = "au_fondue_notifications"
	statusRejected   = "REJECTED"
	maxSendAttempts  = 3
)

var ErrNotificationsDisabled = errors.New("notifications disabled")

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier delivers push notifications through Firebase Cloud Messaging.
type FCMNotifier struct {
	sender  messageSender
	backoff time.Duration
	log     zerolog.Logger
}

func NewFCMNotifier(ctx context.Context, app *firebase.App, log zerolog.Logger) (*FCMNotifier, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing messaging client: %w", err)
	}
	return &FCMNotifier{sender: client, backoff: 500 * time.Millisecond, log: log}, nil
}

func (n *FCMNotifier) NotifyStatusChange(ctx context.Context, deviceToken string, issueID uuid.UUID, status, comment string) error {
	title, body := statusMessage(status, comment)

	return n.send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"issueId":    issueID.String(),
			"updateType": "status_update",
			"status":     status,
			"comment":    comment,
		},
		Android: androidConfig(),
	})
}

func (n *FCMNotifier) SendTest(ctx context.Context, deviceToken, title, body string) error {
	return n.send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:    map[string]string{"updateType": "test"},
		Android: androidConfig(),
	})
}

// send retries only errors FCM reports as transient.
func (n *FCMNotifier) send(ctx context.Context, message *messaging.Message) error {
	var lastErr error
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		id, err := n.sender.Send(ctx, message)
		if err == nil {
			n.log.Debug().Str("message_id", id).Msg("push notification sent")
			return nil
		}
		lastErr = err

		if !messaging.IsServerUnavailable(err) && !messaging.IsInternal(err) {
			break
		}
		if attempt == maxSendAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * n.backoff):
		}
	}
	return fmt.Errorf("send push notification: %w", lastErr)
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Icon:      androidIcon,
			ChannelID: androidChannelID,
		},
	}
}

func statusMessage(status, comment string) (string, string) {
	var title, body string
	switch status {
	case model.IssueStatusInProgress:
		title, body = "Issue in Progress", "Your reported issue is now being worked on"
	case model.IssueStatusCompleted:
		title, body = "Issue Completed", "Your reported issue has been resolved"
	case statusRejected:
		title, body = "Issue Reviewed", "Your reported issue has been reviewed"
	default:
		title, body = "Issue Update", "There's an update on your reported issue"
	}
	if comment != "" {
		body += ": " + comment
	}
	return title, body
}

// DisabledNotifier is used when Firebase is not configured.
type DisabledNotifier struct{}

func (DisabledNotifier) NotifyStatusChange(context.Context, string, uuid.UUID, string, string) error {
	return ErrNotificationsDisabled
}

func (DisabledNotifier) SendTest(context.Context, string, string, string) error {
	return ErrNotificationsDisabled
}
