package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CheckFunc devolve nil quando a dependência responde.
type CheckFunc func(ctx context.Context) error

type HealthHandler struct {
	Checks    map[string]CheckFunc
	Version   string
	StartTime time.Time
	Timeout   time.Duration
	Log       *otelzap.Logger
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler recebe só as dependências configuradas; as demais não
// aparecem na resposta. O motivo da falha vai para o log, nunca para o corpo.
func NewHealthHandler(version string, checks map[string]CheckFunc, log *otelzap.Logger) *HealthHandler {
	if log == nil {
		log = otelzap.New(zap.NewNop())
	}
	return &HealthHandler{
		Log:       log,
		Checks:    checks,
		Version:   version,
		StartTime: time.Now(),
		Timeout:   2 * time.Second,
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			h.Log.Ctx(r.Context()).Warn("dependência indisponível",
				zap.String("dependency", name),
				zap.Error(err),
			)
			deps[name] = "unhealthy"
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	response := HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}
