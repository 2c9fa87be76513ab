package notify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

const detailNotConfigured = "canal não configurado"

// Dispatcher envia os dois avisos de um lead em paralelo: alerta no WhatsApp
// da agência e e-mail de confirmação para o cliente. Um canal nunca cancela
// o outro.
type Dispatcher struct {
	WhatsApp    Sender
	Email       Sender
	AgencyPhone string
}

func NewDispatcher(whatsapp, email Sender, agencyPhone string) *Dispatcher {
	if agencyPhone == "" {
		agencyPhone = DefaultAgencyPhone
	}
	return &Dispatcher{
		WhatsApp:    whatsapp,
		Email:       email,
		AgencyPhone: agencyPhone,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, lead entity.Lead) []usecase.NotificationResult {
	results := make([]usecase.NotificationResult, 2)

	var g errgroup.Group
	g.Go(func() error {
		results[0] = d.send(ctx, usecase.ChannelWhatsApp, d.WhatsApp, d.AgencyPhone, func() (string, error) {
			return AlertText(lead), nil
		})
		return nil
	})
	g.Go(func() error {
		results[1] = d.send(ctx, usecase.ChannelEmail, d.Email, lead.Email, func() (string, error) {
			return ConfirmationEmail(d.AgencyPhone, lead)
		})
		return nil
	})
	_ = g.Wait()

	return results
}

func (d *Dispatcher) send(
	ctx context.Context,
	channel string,
	sender Sender,
	recipient string,
	compose func() (string, error),
) usecase.NotificationResult {
	if sender == nil {
		return usecase.NotificationResult{Channel: channel, Status: usecase.StatusSkipped, Detail: detailNotConfigured}
	}

	message, err := compose()
	if err != nil {
		return usecase.NotificationResult{Channel: channel, Status: usecase.StatusFailed, Err: err}
	}

	res, err := sender.Send(ctx, recipient, message)
	if err != nil {
		return usecase.NotificationResult{Channel: channel, Status: usecase.StatusFailed, Detail: res.Detail, Err: err}
	}

	status := res.Status
	if status == "" {
		status = usecase.StatusSent
	}
	return usecase.NotificationResult{Channel: channel, Status: status, Detail: res.Detail}
}
