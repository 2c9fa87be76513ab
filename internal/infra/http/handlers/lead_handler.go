package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/usecase"
)

const (
	maxBodyBytes = 64 << 10

	msgInvalidBody      = "Requisição inválida."
	msgUnsupportedMedia = "Envie os dados como JSON ou formulário."
)

// LeadSubmitter é o caso de uso de cadastro visto pelo handler.
type LeadSubmitter interface {
	Execute(ctx context.Context, input usecase.SubmitLeadInput) *usecase.SubmitLeadOutput
}

type LeadHandler struct {
	SubmitLead LeadSubmitter
	Log        *otelzap.Logger
}

// NewLeadHandler recebe o logger com contexto de trace, para que os logs da
// requisição saiam com trace_id.
func NewLeadHandler(uc LeadSubmitter, log *otelzap.Logger) *LeadHandler {
	if log == nil {
		log = otelzap.New(zap.NewNop())
	}
	return &LeadHandler{
		SubmitLead: uc,
		Log:        log,
	}
}

// SubmitLeadRequest é o corpo JSON enviado pelo script da landing page.
type SubmitLeadRequest struct {
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	Telefone    string `json:"telefone"`
	Preferencia string `json:"preferencia"`
	Destino     string `json:"destino"`
	DataIda     string `json:"dataIda"`
	DataVolta   string `json:"dataVolta"`
	Origem      string `json:"origem"`
}

func (req SubmitLeadRequest) toInput() usecase.SubmitLeadInput {
	return usecase.SubmitLeadInput{
		Name:          req.Nome,
		Email:         req.Email,
		Phone:         req.Telefone,
		Preference:    req.Preferencia,
		Destination:   req.Destino,
		DepartureDate: req.DataIda,
		ReturnDate:    req.DataVolta,
		Origin:        req.Origem,
	}
}

// payloadDecoder transforma o corpo da requisição na entrada do caso de uso.
type payloadDecoder func(r *http.Request) (usecase.SubmitLeadInput, error)

var errUnsupportedMedia = errors.New("unsupported media type")

func decoderFor(r *http.Request) (payloadDecoder, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, errUnsupportedMedia
	}

	switch mediaType {
	case "application/json":
		return decodeJSON, nil
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm, nil
	default:
		return nil, errUnsupportedMedia
	}
}

func decodeJSON(r *http.Request) (usecase.SubmitLeadInput, error) {
	var req SubmitLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return usecase.SubmitLeadInput{}, err
	}
	return req.toInput(), nil
}

// decodeForm aceita o formulário antigo (nome, whatsapp, email) e o novo, com
// telefone e os campos opcionais.
func decodeForm(r *http.Request) (usecase.SubmitLeadInput, error) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return usecase.SubmitLeadInput{}, err
	}

	phone := r.PostFormValue("whatsapp")
	if phone == "" {
		phone = r.PostFormValue("telefone")
	}

	return usecase.SubmitLeadInput{
		Name:          r.PostFormValue("nome"),
		Email:         r.PostFormValue("email"),
		Phone:         phone,
		Preference:    r.PostFormValue("preferencia"),
		Destination:   r.PostFormValue("destino"),
		DepartureDate: r.PostFormValue("dataIda"),
		ReturnDate:    r.PostFormValue("dataVolta"),
		Origin:        r.PostFormValue("origem"),
	}, nil
}

// Submit responde sempre {success, message}. Só erros de transporte (corpo
// ilegível, tipo de conteúdo desconhecido) saem de 200.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	decode, err := decoderFor(r)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, usecase.SubmitLeadOutput{Message: msgUnsupportedMedia})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	input, err := decode(r)
	if err != nil {
		h.Log.Ctx(r.Context()).Info("corpo inválido",
			zap.String("content_type", r.Header.Get("Content-Type")),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadRequest, usecase.SubmitLeadOutput{Message: msgInvalidBody})
		return
	}

	output := h.SubmitLead.Execute(r.Context(), input)
	writeJSON(w, http.StatusOK, output)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
