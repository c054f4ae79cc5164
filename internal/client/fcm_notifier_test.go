package client

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*messaging.Message
	err      error
}

func (s *recordingSender) Send(_ context.Context, message *messaging.Message) (string, error) {
	s.messages = append(s.messages, message)
	if s.err != nil {
		return "", s.err
	}
	return "projects/test/messages/1", nil
}

func TestNotifyStatusChangeBuildsMessage(t *testing.T) {
	sender := &recordingSender{}
	notifier := &FCMNotifier{sender: sender, log: zerolog.Nop()}
	issueID := uuid.New()

	err := notifier.NotifyStatusChange(context.Background(), "device-token", issueID, "COMPLETED", "pipe replaced")
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "device-token", msg.Token)
	assert.Equal(t, "Issue Completed", msg.Notification.Title)
	assert.Equal(t, "Your reported issue has been resolved: pipe replaced", msg.Notification.Body)
	assert.Equal(t, map[string]string{
		"issueId":    issueID.String(),
		"updateType": "status_update",
		"status":     "COMPLETED",
		"comment":    "pipe replaced",
	}, msg.Data)
	assert.Equal(t, "high", msg.Android.Priority)
	assert.Equal(t, "au_fondue_notifications", msg.Android.Notification.ChannelID)
}

func TestNotifyStatusChangeReturnsSendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("registration token is not valid")}
	notifier := &FCMNotifier{sender: sender, log: zerolog.Nop()}

	err := notifier.NotifyStatusChange(context.Background(), "bad", uuid.New(), "PENDING", "")
	assert.ErrorContains(t, err, "registration token is not valid")
	assert.Len(t, sender.messages, 1)
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		status, comment string
		title, body     string
	}{
		{"IN_PROGRESS", "", "Issue in Progress", "Your reported issue is now being worked on"},
		{"COMPLETED", "", "Issue Completed", "Your reported issue has been resolved"},
		{"REJECTED", "duplicate", "Issue Reviewed", "Your reported issue has been reviewed: duplicate"},
		{"PENDING", "", "Issue Update", "There's an update on your reported issue"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			title, body := statusMessage(tt.status, tt.comment)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestDisabledCollaborators(t *testing.T) {
	ctx := context.Background()

	assert.ErrorIs(t, DisabledNotifier{}.NotifyStatusChange(ctx, "t", uuid.New(), "PENDING", ""), ErrNotificationsDisabled)
	assert.False(t, DisabledIdentity{}.Enabled())
	_, err := DisabledIdentity{}.CreateAccount(ctx, "a@au.edu", "OM01")
	assert.ErrorIs(t, err, ErrIdentityDisabled)
}
