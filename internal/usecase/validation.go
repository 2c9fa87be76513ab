package usecase

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fsrviagens/leads-api/internal/entity"
)

const dateLayout = "2006-01-02"

var (
	nonDigit = regexp.MustCompile(`\D`)
	validate = validator.New()
)

// NormalizePhone remove tudo que não for dígito. Não valida tamanho nem DDI.
func NormalizePhone(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}

func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// buildLead aplica as validações em ordem e para na primeira falha.
func buildLead(input SubmitLeadInput) (*entity.Lead, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)

	if name == "" || email == "" || phone == "" {
		return nil, newValidationError(MsgMissingField)
	}

	if !IsValidEmail(email) {
		return nil, newValidationError(MsgInvalidEmail)
	}

	whatsapp := NormalizePhone(phone)
	if whatsapp == "" {
		return nil, newValidationError(MsgMissingField)
	}

	departure, err := parseOptionalDate(input.DepartureDate)
	if err != nil {
		return nil, newValidationError(MsgInvalidDate)
	}
	ret, err := parseOptionalDate(input.ReturnDate)
	if err != nil {
		return nil, newValidationError(MsgInvalidDate)
	}
	if departure != nil && ret != nil && !ret.After(*departure) {
		return nil, newValidationError(MsgReturnBeforeDepart)
	}

	lead, err := entity.NewLead(name, email, whatsapp)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	lead.TravelPreference = strings.TrimSpace(input.Preference)
	lead.Destination = strings.TrimSpace(input.Destination)
	lead.DepartureDate = departure
	lead.ReturnDate = ret
	if origin := strings.TrimSpace(input.Origin); origin != "" {
		lead.Origin = origin
	}

	return lead, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
