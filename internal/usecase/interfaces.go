package usecase

import (
	"context"

	"github.com/fsrviagens/leads-api/internal/entity"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelQueue    = "queue"

	StatusSent    = "sent"
	StatusQueued  = "queued"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// NotificationResult é o {status, detail} devolvido por cada canal.
type NotificationResult struct {
	Channel string
	Status  string
	Detail  string
	Err     error
}

// Notifier entrega um lead já persistido aos canais de aviso. Nunca deve
// desfazer nada: o resultado só é observado.
type Notifier interface {
	Notify(ctx context.Context, lead entity.Lead) []NotificationResult
}

type MetricsRecorder interface {
	RecordLeadSubmission(outcome string)
	RecordNotificationError(channel string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLeadSubmission(string)    {}
func (noopMetrics) RecordNotificationError(string) {}
