package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fsrviagens/leads-api/internal/infra/notify"
)

const DefaultBaseURL = "https://graph.facebook.com/v18.0"

var ErrNotConfigured = errors.New("whatsapp não configurado")

// Client envia mensagens de texto pela WhatsApp Cloud API.
type Client struct {
	accessToken string
	phoneID     string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken, phoneID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		accessToken: accessToken,
		phoneID:     phoneID,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured informa se token e phone id foram informados.
func (c *Client) Configured() bool {
	return c.accessToken != "" && c.phoneID != ""
}

// Send implementa notify.Sender. O detalhe devolvido é o id da mensagem.
func (c *Client) Send(ctx context.Context, recipient, message string) (notify.Result, error) {
	if !c.Configured() {
		return notify.Result{}, ErrNotConfigured
	}

	payload := textMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "text",
		Text:             textPayload{Body: message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return notify.Result{}, fmt.Errorf("whatsapp: serializando payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return notify.Result{}, fmt.Errorf("whatsapp: criando requisição: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return notify.Result{}, fmt.Errorf("whatsapp: enviando mensagem: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var result SendMessageResponse
	_ = json.Unmarshal(respBody, &result)

	if result.Error != nil {
		return notify.Result{Detail: result.Error.Type}, fmt.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return notify.Result{}, fmt.Errorf("whatsapp api error: %d", resp.StatusCode)
	}

	res := notify.Result{Status: "sent"}
	if len(result.Messages) > 0 {
		res.Detail = result.Messages[0].ID
	}
	return res, nil
}
