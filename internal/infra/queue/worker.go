package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

const (
	consumerTag          = "leads-notifier"
	defaultNotifyTimeout = 30 * time.Second
)

// Consumer é o pedaço de *amqp.Channel que o worker usa.
type Consumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

// Worker consome lead.created e entrega aos canais de aviso.
type Worker struct {
	Channel  Consumer
	Notifier usecase.Notifier
	Metrics  usecase.MetricsRecorder
	Log      *zap.SugaredLogger
	// Timeout limita os avisos de cada mensagem.
	Timeout time.Duration
}

func NewWorker(ch Consumer, notifier usecase.Notifier, metrics usecase.MetricsRecorder, log *zap.SugaredLogger) *Worker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		Metrics:  metrics,
		Log:      log,
		Timeout:  defaultNotifyTimeout,
	}
}

// Start bloqueia consumindo queueName até ctx acabar ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	if err := w.Channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("falha ao configurar prefetch: %w", err)
	}

	msgs, err := w.Channel.Consume(
		queueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Log.Infow("worker aguardando mensagens", "queue", queueName)

	for {
		select {
		case <-ctx.Done():
			_ = w.Channel.Cancel(consumerTag, false)
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal de entregas fechado pelo broker")
			}
			w.handle(ctx, d)
		}
	}
}

// handle só manda para a DLQ quando nenhum canal entregou. Reenfileirar
// repetiria o canal que já funcionou.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var lead entity.Lead
	if err := json.Unmarshal(d.Body, &lead); err != nil {
		w.Log.Errorw("mensagem inválida", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	notifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := w.Notifier.Notify(notifyCtx, lead)

	var sent, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			w.Log.Warnw("aviso falhou", "lead_id", lead.ID, "channel", r.Channel, "error", r.Err)
			if w.Metrics != nil {
				w.Metrics.RecordNotificationError(r.Channel)
			}
			continue
		}
		if r.Status != usecase.StatusSkipped {
			sent++
		}
		w.Log.Infow("aviso entregue", "lead_id", lead.ID, "channel", r.Channel, "status", r.Status)
	}

	if failed > 0 && sent == 0 {
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
