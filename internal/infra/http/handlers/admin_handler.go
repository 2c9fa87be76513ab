package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

type LeadLister interface {
	Execute(ctx context.Context, input usecase.ListLeadsInput) ([]*entity.Lead, error)
}

// AdminHandler expõe a listagem interna dos últimos leads.
type AdminHandler struct {
	ListLeads LeadLister
	Log       *otelzap.Logger
}

func NewAdminHandler(uc LeadLister, log *otelzap.Logger) *AdminHandler {
	if log == nil {
		log = otelzap.New(zap.NewNop())
	}
	return &AdminHandler{ListLeads: uc, Log: log}
}

type ListLeadsResponse struct {
	Count int            `json:"count"`
	Leads []*entity.Lead `json:"leads"`
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	var input usecase.ListLeadsInput
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit deve ser um inteiro positivo"})
			return
		}
		input.Limit = limit
	}

	leads, err := h.ListLeads.Execute(r.Context(), input)
	if err != nil {
		h.Log.Ctx(r.Context()).Error("falha ao listar leads", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": usecase.MsgStorageUnavailable})
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{Count: len(leads), Leads: leads})
}
