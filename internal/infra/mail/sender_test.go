package mail

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestEmailSenderSend(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "")

	var sent *gomail.Message
	s.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	res, err := s.Send(context.Background(), "ana@example.com", "<p>Olá</p>")
	require.NoError(t, err)
	assert.Equal(t, "sent", res.Status)

	require.NotNil(t, sent)
	assert.Equal(t, []string{"ana@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{DefaultFrom}, sent.GetHeader("From"))
	// gomail guarda cabeçalhos não ASCII já codificados
	subject := sent.GetHeader("Subject")
	require.Len(t, subject, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, decoded)

	var raw bytes.Buffer
	_, err = sent.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Content-Type: text/html")
}

func TestEmailSenderSMTPError(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "contato@fsrviagens.com.br")
	s.send = func(m *gomail.Message) error { return errors.New("535 auth failed") }

	_, err := s.Send(context.Background(), "ana@example.com", "<p>Olá</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 auth failed")
}

func TestEmailSenderStopsWaitingOnContext(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "")
	release := make(chan struct{})
	defer close(release)
	s.send = func(m *gomail.Message) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Send(ctx, "ana@example.com", "<p>Olá</p>")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmailSenderNotConfigured(t *testing.T) {
	s := NewEmailSender("", 0, "", "", "")

	_, err := s.Send(context.Background(), "ana@example.com", "<p>Olá</p>")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
