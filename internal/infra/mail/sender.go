package mail

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/fsrviagens/leads-api/internal/infra/notify"
)

var ErrNotConfigured = errors.New("smtp não configurado")

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = DefaultFrom
	}
	s := &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		Subject:  DefaultSubject,
	}
	s.send = func(m *gomail.Message) error {
		return gomail.NewDialer(s.Host, s.Port, s.User, s.Password).DialAndSend(m)
	}
	return s
}

func (s *EmailSender) Configured() bool {
	return s.Host != ""
}

// Send implementa notify.Sender: body é o HTML já renderizado.
func (s *EmailSender) Send(ctx context.Context, to, body string) (notify.Result, error) {
	if !s.Configured() {
		return notify.Result{}, ErrNotConfigured
	}

	m := s.message(to, body)

	// gomail não aceita context; o envio continua até o timeout do dialer
	// mas deixamos de esperar quando ctx expira.
	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			return notify.Result{}, fmt.Errorf("erro ao enviar email SMTP: %w", err)
		}
		return notify.Result{Status: "sent", Detail: to}, nil
	case <-ctx.Done():
		return notify.Result{}, fmt.Errorf("erro ao enviar email SMTP: %w", ctx.Err())
	}
}

func (s *EmailSender) message(to, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", s.Subject)
	m.SetBody("text/html", body)
	return m
}
