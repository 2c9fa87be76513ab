package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/entity"
)

const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation_error"
	OutcomeConflict   = "conflict"
	OutcomeStorage    = "storage_error"
)

type SubmitLeadUseCase struct {
	Tx       entity.LeadStoreTx
	Notifier Notifier
	Metrics  MetricsRecorder
	Log      *zap.SugaredLogger

	// QueryTimeout limita a aquisição da conexão e a transação inteira.
	QueryTimeout time.Duration
	// NotifyWait é quanto a resposta espera pelos avisos.
	NotifyWait time.Duration
	// NotifyTimeout limita os avisos que continuam em segundo plano.
	NotifyTimeout time.Duration
}

func NewSubmitLeadUseCase(
	tx entity.LeadStoreTx,
	notifier Notifier,
	metrics MetricsRecorder,
	log *zap.SugaredLogger,
) *SubmitLeadUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SubmitLeadUseCase{
		Tx:            tx,
		Notifier:      notifier,
		Metrics:       metrics,
		Log:           log,
		QueryTimeout:  5 * time.Second,
		NotifyWait:    3 * time.Second,
		NotifyTimeout: 30 * time.Second,
	}
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) *SubmitLeadOutput {
	lead, err := buildLead(input)
	if err != nil {
		return uc.fail(err)
	}

	if err := uc.persist(ctx, lead); err != nil {
		return uc.fail(err)
	}

	uc.Log.Infow("lead cadastrado", "lead_id", lead.ID, "origin", lead.Origin)
	uc.Metrics.RecordLeadSubmission(OutcomeSuccess)

	uc.dispatch(ctx, *lead)

	return &SubmitLeadOutput{
		Success: true,
		Message: MsgSuccess,
	}
}

func (uc *SubmitLeadUseCase) persist(ctx context.Context, lead *entity.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, uc.QueryTimeout)
	defer cancel()

	err := uc.Tx.RunInTx(ctx, func(repo entity.LeadRepositoryInterface) error {
		exists, err := repo.ExistsByEmail(ctx, lead.Email)
		if err != nil {
			return err
		}
		if exists {
			return entity.ErrEmailAlreadyExists
		}
		return repo.Create(ctx, lead)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrEmailAlreadyExists):
		return newConflictError()
	default:
		return newStorageError(err)
	}
}

func (uc *SubmitLeadUseCase) fail(err error) *SubmitLeadOutput {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Code == CodeConflict {
			uc.Metrics.RecordLeadSubmission(OutcomeConflict)
		} else {
			uc.Metrics.RecordLeadSubmission(OutcomeValidation)
		}
		return &SubmitLeadOutput{Success: false, Message: de.Message}
	}

	uc.Log.Errorw("falha ao gravar lead", "code", CodeStorageUnavailable, "error", err)
	uc.Metrics.RecordLeadSubmission(OutcomeStorage)
	return &SubmitLeadOutput{Success: false, Message: MsgStorageUnavailable}
}

// dispatch entrega o lead aos canais de aviso. O cadastro já foi commitado:
// nenhum resultado aqui altera a resposta.
func (uc *SubmitLeadUseCase) dispatch(ctx context.Context, lead entity.Lead) {
	if uc.Notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.NotifyTimeout)
	done := make(chan []NotificationResult, 1)
	go func() {
		defer cancel()
		done <- uc.Notifier.Notify(notifyCtx, lead)
	}()

	timer := time.NewTimer(uc.NotifyWait)
	defer timer.Stop()

	select {
	case results := <-done:
		uc.observe(lead, results)
	case <-timer.C:
		uc.Log.Warnw("avisos ainda em andamento, respondendo sem esperar", "lead_id", lead.ID)
		go func() {
			uc.observe(lead, <-done)
		}()
	}
}

func (uc *SubmitLeadUseCase) observe(lead entity.Lead, results []NotificationResult) {
	for _, r := range results {
		if r.Err != nil {
			err := newNotificationError(r.Channel, r.Err)
			uc.Log.Warnw("aviso falhou", "lead_id", lead.ID, "channel", r.Channel, "code", err.Code, "error", err)
			uc.Metrics.RecordNotificationError(r.Channel)
			continue
		}
		uc.Log.Infow("aviso entregue", "lead_id", lead.ID, "channel", r.Channel, "status", r.Status, "detail", r.Detail)
	}
}
