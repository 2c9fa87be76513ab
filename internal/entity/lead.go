package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const DefaultOrigin = "Landing Page"

var ErrEmailAlreadyExists = errors.New("email already registered")

// Lead é um pedido de orçamento capturado pelo formulário do site.
type Lead struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"nome"`
	Email            string     `json:"email" db:"email"`
	WhatsApp         string     `json:"whatsapp" db:"whatsapp"`
	TravelPreference string     `json:"travel_preference,omitempty" db:"preferencia"`
	Destination      string     `json:"destination,omitempty" db:"destino"`
	DepartureDate    *time.Time `json:"departure_date,omitempty" db:"data_ida"`
	ReturnDate       *time.Time `json:"return_date,omitempty" db:"data_volta"`
	Origin           string     `json:"origin" db:"origem"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// Factory
func NewLead(name, email, whatsapp string) (*Lead, error) {
	lead := &Lead{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		WhatsApp:  whatsapp,
		Origin:    DefaultOrigin,
		CreatedAt: time.Now().UTC(),
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

func (l *Lead) Validate() error {
	if l.Name == "" {
		return errors.New("name is required")
	}
	if l.Email == "" {
		return errors.New("email is required")
	}
	if l.WhatsApp == "" {
		return errors.New("whatsapp is required")
	}
	for _, r := range l.WhatsApp {
		if r < '0' || r > '9' {
			return errors.New("whatsapp must contain only digits")
		}
	}
	return nil
}

type LeadRepositoryInterface interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, lead *Lead) error
	CountByEmail(ctx context.Context, email string) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*Lead, error)
}

// LeadStoreTx runs fn inside a single database transaction. The repository
// handed to fn is bound to that transaction.
type LeadStoreTx interface {
	RunInTx(ctx context.Context, fn func(repo LeadRepositoryInterface) error) error
}
