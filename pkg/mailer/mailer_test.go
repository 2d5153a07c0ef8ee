package mailer

import (
	"context"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewWithoutHostLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()

	sender, err := New(Config{}, logger)
	require.NoError(t, err)
	require.IsType(t, Log{}, sender)

	require.NoError(t, sender.SendPasswordReset(context.Background(), "a@example.com", "http://reset/abc"))
	var entry = hook.LastEntry()
	assert.Equal(t, resetSubject, entry.Message)
	assert.Equal(t, "http://reset/abc", entry.Data["link"])
}

func TestNewRequiresSender(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(Config{Host: "smtp.example.com"}, logger)
	assert.ErrorIs(t, err, ErrMissingSender)

	sender, err := New(Config{Host: "smtp.example.com", From: "noreply@example.com"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, sender)
}

func TestSMTPRejectsBadRecipient(t *testing.T) {
	var sender = &SMTP{cfg: Config{Host: "smtp.invalid", From: "noreply@example.com"}}
	assert.Error(t, sender.SendPasswordReset(context.Background(), "not an address", "http://reset/abc"))
}

func TestResetBody(t *testing.T) {
	assert.Contains(t, resetBody("http://reset/abc"), "http://reset/abc")
}
