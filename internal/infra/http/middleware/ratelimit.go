package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/infra/ratelimit"
)

const msgTooManyRequests = "Muitas tentativas. Tente novamente em instantes."

// RateLimit devolve 429 quando o IP do cliente estoura a janela. Se o
// limitador falhar a requisição passa.
func RateLimit(limiter ratelimit.Limiter, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			ok, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				log.Warnw("rate limiter indisponível", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				rateLimited.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": msgTooManyRequests,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP usa só o RemoteAddr sem a porta. Cabeçalhos de proxy valem apenas
// quando o router põe chi RealIP na frente (proxy confiável configurado).
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
