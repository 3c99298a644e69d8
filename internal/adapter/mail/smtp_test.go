package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/config"
	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("alerts@example.com", domain.Mail{
		To:      "5551234567@vtext.com",
		Subject: domain.NotificationSubject,
		Body:    "Hello Ada,\n\nClear skies!\n",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "From: <alerts@example.com>")
	assert.Contains(t, raw, "To: <5551234567@vtext.com>")
	assert.Contains(t, raw, "Subject: "+domain.NotificationSubject)
	assert.Contains(t, raw, "Clear skies!")
}

func TestBuildMessage_InvalidRecipient(t *testing.T) {
	_, err := buildMessage("alerts@example.com", domain.Mail{To: "not an address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestClassify(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.ErrorIs(t, classify(netErr), domain.ErrTransient)
	assert.ErrorIs(t, classify(fmt.Errorf("send: %w", context.DeadlineExceeded)), domain.ErrTransient)
	assert.NotErrorIs(t, classify(errors.New("550 mailbox unavailable")), domain.ErrTransient)
}

func TestSMTPMailer_UnreachableRelayIsTransient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(&config.Config{
		SMTPHost:    "127.0.0.1",
		SMTPPort:    port,
		MailFrom:    "alerts@example.com",
		MailTimeout: time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err = m.Send(context.Background(), domain.Mail{To: "ada@example.com", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, m.Send(context.Background(), domain.Mail{To: "ada@example.com", Subject: "hi", Body: "body"}))
	assert.Contains(t, buf.String(), `"to":"ada@example.com"`)
	assert.NotContains(t, buf.String(), "body\"")
}
