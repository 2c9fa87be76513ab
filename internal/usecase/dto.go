package usecase

const (
	MsgSuccess            = "Cadastro realizado com sucesso!"
	MsgMissingField       = "missing required field"
	MsgInvalidEmail       = "invalid email format"
	MsgInvalidDate        = "invalid date format"
	MsgReturnBeforeDepart = "return date must be after departure date"
	MsgEmailConflict      = "E-mail já cadastrado. Use outro e-mail ou fale com a nossa equipe."
	MsgStorageUnavailable = "Serviço indisponível no momento. Tente novamente mais tarde."
)

// SubmitLeadInput são os campos canônicos, já independentes do formato
// (form ou JSON) em que chegaram.
type SubmitLeadInput struct {
	Name          string
	Email         string
	Phone         string
	Preference    string
	Destination   string
	DepartureDate string // YYYY-MM-DD
	ReturnDate    string // YYYY-MM-DD
	Origin        string
}

type SubmitLeadOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ListLeadsInput struct {
	Limit int
}
