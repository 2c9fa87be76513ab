package mail

import "gopkg.in/gomail.v2"

const (
	DefaultFrom    = "nao-responda@fsrviagens.com.br"
	DefaultSubject = "Recebemos seu pedido de orçamento - FSR Viagens"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Subject  string

	send func(m *gomail.Message) error
}
