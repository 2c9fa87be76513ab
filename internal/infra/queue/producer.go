package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

// Publisher é o pedaço de *amqp.Channel que o produtor usa.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Producer publica o lead cadastrado para o worker de avisos. Se o broker
// recusar, cai no Fallback (envio direto) quando houver um.
type Producer struct {
	Ch       Publisher
	Fallback usecase.Notifier
}

func NewProducer(ch Publisher, fallback usecase.Notifier) *Producer {
	return &Producer{
		Ch:       ch,
		Fallback: fallback,
	}
}

func (p *Producer) Notify(ctx context.Context, lead entity.Lead) []usecase.NotificationResult {
	err := p.PublishLeadCreated(ctx, lead)
	if err == nil {
		return []usecase.NotificationResult{{
			Channel: usecase.ChannelQueue,
			Status:  usecase.StatusQueued,
			Detail:  QueueName,
		}}
	}

	results := []usecase.NotificationResult{{
		Channel: usecase.ChannelQueue,
		Status:  usecase.StatusFailed,
		Err:     err,
	}}
	if p.Fallback != nil {
		results = append(results, p.Fallback.Notify(ctx, lead)...)
	}
	return results
}

func (p *Producer) PublishLeadCreated(ctx context.Context, lead entity.Lead) error {
	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    lead.ID,
			Type:         "lead.created",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}
