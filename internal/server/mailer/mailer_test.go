package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func render(t *testing.T, msg *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestConfig_Validate(t *testing.T) {
	ok := Config{Host: "smtp.local", Port: 25, From: "auth@x.io"}
	assert.NoError(t, ok.Validate())

	for _, c := range []Config{
		{Port: 25, From: "auth@x.io"},
		{Host: "smtp.local", From: "auth@x.io"},
		{Host: "smtp.local", Port: 25},
	} {
		assert.Error(t, c.Validate())
	}

	_, err := NewSMTPSender(Config{})
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{from: "auth@x.io", dialer: d}
	exp := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)

	require.NoError(t, s.SendVerificationCode(context.Background(), "a@b.com", "482913", exp))
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"a@b.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"auth@x.io"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{verificationSubject}, d.sent[0].GetHeader("Subject"))
	assert.Contains(t, render(t, d.sent[0]), "482913")
}

func TestSMTPSender_Errors(t *testing.T) {
	d := &fakeDialer{err: errors.New("dial tcp: connection refused")}
	s := &SMTPSender{from: "auth@x.io", dialer: d}

	err := s.SendVerificationCode(context.Background(), "a@b.com", "1", time.Now())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "sending verification mail"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.sent = nil
	assert.ErrorIs(t, s.SendVerificationCode(ctx, "a@b.com", "1", time.Now()), context.Canceled)
	assert.Empty(t, d.sent)
}

func TestOutboxSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewOutboxSender("", &buf)

	require.NoError(t, s.SendVerificationCode(context.Background(), "a@b.com", "123456", time.Now()))

	out := buf.String()
	assert.Contains(t, out, "To: a@b.com")
	assert.Contains(t, out, "From: no-reply@localhost")
	assert.Contains(t, out, "123456")
}
