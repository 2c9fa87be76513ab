// Package ratelimit limita quantos cadastros um mesmo cliente envia por
// janela de tempo.
package ratelimit

import "context"

// Limiter decide se mais uma requisição de key cabe na janela atual.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
