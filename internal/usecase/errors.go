package usecase

import "errors"

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "EMAIL_CONFLICT"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeNotificationFailed = "NOTIFICATION_FAILED"
)

// DomainError é um erro que o usuário pode corrigir (validação, duplicidade).
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError é uma falha de infraestrutura. Err guarda a causa original,
// que vai para o log e nunca para a resposta.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func newValidationError(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

func newConflictError() *DomainError {
	return &DomainError{Code: CodeConflict, Message: MsgEmailConflict}
}

func newStorageError(err error) *TechnicalError {
	return &TechnicalError{Code: CodeStorageUnavailable, Message: "storage unavailable", Err: err}
}

func newNotificationError(channel string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeNotificationFailed, Message: channel + " notification failed", Err: err}
}
