package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, lead entity.Lead) []usecase.NotificationResult {
	args := m.Called(ctx, lead)
	return args.Get(0).([]usecase.NotificationResult)
}

// fakeAck registra Ack/Nack de uma amqp.Delivery
type fakeAck struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return nil
}

func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type fakeConsumer struct {
	msgs     chan amqp.Delivery
	canceled chan string
}

func (f *fakeConsumer) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }

func (f *fakeConsumer) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.msgs, nil
}

func (f *fakeConsumer) Cancel(consumer string, noWait bool) error {
	f.canceled <- consumer
	return nil
}

func sampleLead() entity.Lead {
	return entity.Lead{
		ID:          "lead-1",
		Name:        "Ana Silva",
		Email:       "ana@example.com",
		WhatsApp:    "61983163710",
		Destination: "Natal",
		Origin:      entity.DefaultOrigin,
		CreatedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func delivery(t *testing.T, ack *fakeAck, lead entity.Lead) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(lead)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

// TestProducerPublishes - lead publicado como persistente com o id como MessageId
func TestProducerPublishes(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, ExchangeName, RoutingKey, false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got entity.Lead
			return json.Unmarshal(msg.Body, &got) == nil &&
				got.Email == "ana@example.com" &&
				msg.MessageId == "lead-1" &&
				msg.DeliveryMode == amqp.Persistent
		})).Return(nil)

	results := NewProducer(pub, nil).Notify(context.Background(), sampleLead())

	require.Len(t, results, 1)
	assert.Equal(t, usecase.ChannelQueue, results[0].Channel)
	assert.Equal(t, usecase.StatusQueued, results[0].Status)
	pub.AssertExpectations(t)
}

// TestProducerFallsBackToDirectDispatch - broker fora, avisos vão direto
func TestProducerFallsBackToDirectDispatch(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(amqp.ErrClosed)

	fallback := new(MockNotifier)
	fallback.On("Notify", mock.Anything, sampleLead()).Return([]usecase.NotificationResult{
		{Channel: usecase.ChannelWhatsApp, Status: usecase.StatusSent},
	})

	results := NewProducer(pub, fallback).Notify(context.Background(), sampleLead())

	require.Len(t, results, 2)
	assert.Equal(t, usecase.StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, amqp.ErrClosed)
	assert.Equal(t, usecase.ChannelWhatsApp, results[1].Channel)
	fallback.AssertExpectations(t)
}

func TestWorkerAcksDeliveredLead(t *testing.T) {
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, sampleLead()).Return([]usecase.NotificationResult{
		{Channel: usecase.ChannelWhatsApp, Status: usecase.StatusSent},
		{Channel: usecase.ChannelEmail, Status: usecase.StatusFailed, Err: errors.New("smtp down")},
	})

	ack := &fakeAck{}
	NewWorker(nil, n, nil, nil).handle(context.Background(), delivery(t, ack, sampleLead()))

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 0, ack.nacked)
}

func TestWorkerDeadLettersWhenEveryChannelFails(t *testing.T) {
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, sampleLead()).Return([]usecase.NotificationResult{
		{Channel: usecase.ChannelWhatsApp, Status: usecase.StatusFailed, Err: errors.New("401")},
		{Channel: usecase.ChannelEmail, Status: usecase.StatusSkipped},
	})

	ack := &fakeAck{}
	NewWorker(nil, n, nil, nil).handle(context.Background(), delivery(t, ack, sampleLead()))

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestWorkerAcksWhenNothingConfigured(t *testing.T) {
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, sampleLead()).Return([]usecase.NotificationResult{
		{Channel: usecase.ChannelWhatsApp, Status: usecase.StatusSkipped},
		{Channel: usecase.ChannelEmail, Status: usecase.StatusSkipped},
	})

	ack := &fakeAck{}
	NewWorker(nil, n, nil, nil).handle(context.Background(), delivery(t, ack, sampleLead()))

	assert.Equal(t, 1, ack.acked)
}

// TestWorkerBoundsNotification - cada mensagem tem prazo próprio para os avisos
func TestWorkerBoundsNotification(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool

	n := new(MockNotifier)
	n.On("Notify", mock.Anything, sampleLead()).
		Run(func(args mock.Arguments) {
			deadline, hasDeadline = args.Get(0).(context.Context).Deadline()
		}).
		Return([]usecase.NotificationResult{{Channel: usecase.ChannelWhatsApp, Status: usecase.StatusSent}})

	w := NewWorker(nil, n, nil, nil)
	w.Timeout = 2 * time.Second

	start := time.Now()
	ack := &fakeAck{}
	w.handle(context.Background(), delivery(t, ack, sampleLead()))

	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(2*time.Second), deadline, time.Second)
	assert.Equal(t, 1, ack.acked)
}

// TestWorkerStalledNotifierDoesNotBlock - um canal travado solta o consumidor no prazo
func TestWorkerStalledNotifierDoesNotBlock(t *testing.T) {
	stalled := notifierFunc(func(ctx context.Context, lead entity.Lead) []usecase.NotificationResult {
		<-ctx.Done()
		return []usecase.NotificationResult{{Channel: usecase.ChannelEmail, Status: usecase.StatusFailed, Err: ctx.Err()}}
	})

	w := NewWorker(nil, stalled, nil, nil)
	w.Timeout = 50 * time.Millisecond

	ack := &fakeAck{}
	done := make(chan struct{})
	go func() {
		w.handle(context.Background(), delivery(t, ack, sampleLead()))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker ficou preso no aviso")
	}
	assert.Equal(t, 1, ack.nacked)
}

type notifierFunc func(ctx context.Context, lead entity.Lead) []usecase.NotificationResult

func (f notifierFunc) Notify(ctx context.Context, lead entity.Lead) []usecase.NotificationResult {
	return f(ctx, lead)
}

func TestWorkerRejectsMalformedMessage(t *testing.T) {
	n := new(MockNotifier)
	ack := &fakeAck{}

	NewWorker(nil, n, nil, nil).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestWorkerStartStopsOnContextCancel(t *testing.T) {
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, sampleLead()).Return([]usecase.NotificationResult{
		{Channel: usecase.ChannelWhatsApp, Status: usecase.StatusSent},
	})

	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery, 1), canceled: make(chan string, 1)}
	ack := &fakeAck{}
	consumer.msgs <- delivery(t, ack, sampleLead())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- NewWorker(consumer, n, nil, nil).Start(ctx, QueueName) }()

	require.Eventually(t, func() bool {
		ack.mu.Lock()
		defer ack.mu.Unlock()
		return ack.acked == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, consumerTag, <-consumer.canceled)
}

func TestWorkerStartFailsWhenBrokerClosesChannel(t *testing.T) {
	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery), canceled: make(chan string, 1)}
	close(consumer.msgs)

	err := NewWorker(consumer, new(MockNotifier), nil, nil).Start(context.Background(), QueueName)
	assert.Error(t, err)
}
