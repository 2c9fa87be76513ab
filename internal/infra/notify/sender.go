package notify

import "context"

// Result é o retorno de um canal: status curto e um detalhe livre (id da
// mensagem, motivo do skip etc).
type Result struct {
	Status string
	Detail string
}

// Sender entrega uma mensagem a um destinatário.
type Sender interface {
	Send(ctx context.Context, recipient, message string) (Result, error)
}

// SenderFunc adapta uma função comum para Sender.
type SenderFunc func(ctx context.Context, recipient, message string) (Result, error)

func (f SenderFunc) Send(ctx context.Context, recipient, message string) (Result, error) {
	return f(ctx, recipient, message)
}
