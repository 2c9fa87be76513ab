package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/fsrviagens/leads-api/internal/entity"
)

const (
	DefaultAgencyPhone = "5561983163710"
	chatBaseURL        = "https://api.whatsapp.com/send"
	dateLayout         = "02/01/2006"
)

//go:embed templates/confirmation.html
var templatesFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templatesFS, "templates/confirmation.html"))

type confirmationData struct {
	Name          string
	Destination   string
	DepartureDate string
	ReturnDate    string
	WhatsApp      string
	ChatLink      template.URL
}

// ChatLink monta o link click-to-chat da agência já com a mensagem do cliente
// preenchida.
func ChatLink(agencyPhone string, lead entity.Lead) string {
	destination := lead.Destination
	if destination == "" {
		destination = "a definir"
	}

	text := fmt.Sprintf(
		"Olá! Sou o(a) %s e acabei de me cadastrar na Landing Page da FSR Viagens. "+
			"Meu destino de interesse principal é: %s. "+
			"Meu contato para retorno é: %s. Por favor, me ajudem com o planejamento!",
		lead.Name, destination, lead.WhatsApp,
	)

	q := url.Values{}
	q.Set("phone", agencyPhone)
	q.Set("text", text)
	return chatBaseURL + "?" + q.Encode()
}

// AlertText é o aviso curto que vai para o WhatsApp da agência.
func AlertText(lead entity.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Novo lead (%s)\n", lead.Origin)
	fmt.Fprintf(&b, "Nome: %s\n", lead.Name)
	fmt.Fprintf(&b, "E-mail: %s\n", lead.Email)
	fmt.Fprintf(&b, "WhatsApp: %s", lead.WhatsApp)
	if lead.TravelPreference != "" {
		fmt.Fprintf(&b, "\nPreferência: %s", lead.TravelPreference)
	}
	if lead.Destination != "" {
		fmt.Fprintf(&b, "\nDestino: %s", lead.Destination)
	}
	if lead.DepartureDate != nil {
		fmt.Fprintf(&b, "\nIda: %s", lead.DepartureDate.Format(dateLayout))
	}
	if lead.ReturnDate != nil {
		fmt.Fprintf(&b, "\nVolta: %s", lead.ReturnDate.Format(dateLayout))
	}
	return b.String()
}

// ConfirmationEmail renderiza o HTML enviado ao cliente.
func ConfirmationEmail(agencyPhone string, lead entity.Lead) (string, error) {
	data := confirmationData{
		Name:        lead.Name,
		Destination: lead.Destination,
		WhatsApp:    lead.WhatsApp,
		ChatLink:    template.URL(ChatLink(agencyPhone, lead)),
	}
	if lead.DepartureDate != nil {
		data.DepartureDate = lead.DepartureDate.Format(dateLayout)
	}
	if lead.ReturnDate != nil {
		data.ReturnDate = lead.ReturnDate.Format(dateLayout)
	}

	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("erro ao processar template: %w", err)
	}
	return body.String(), nil
}
