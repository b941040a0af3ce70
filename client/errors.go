package client

import "fmt"

// Category classifies a request failure for the caller. Each category has
// a fixed user-facing message (the app renders pt-BR) and a retryable flag
// derived from the transport error or HTTP status.
type Category string

const (
	CategoryNetwork        Category = "NETWORK"
	CategoryTimeout        Category = "TIMEOUT"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryAuthorization  Category = "AUTHORIZATION"
	CategoryValidation     Category = "VALIDATION"
	CategoryBusiness       Category = "BUSINESS"
	CategoryServer         Category = "SERVER"
	CategoryCancelled      Category = "CANCELLED"
	CategoryUnknown        Category = "UNKNOWN"
)

var userMessages = map[Category]string{
	CategoryNetwork:        "Falha de conexão. Verifique sua internet.",
	CategoryTimeout:        "A solicitação demorou demais. Tente novamente.",
	CategoryAuthentication: "Sessão expirada. Faça login novamente.",
	CategoryAuthorization:  "Você não tem permissão para esta ação.",
	CategoryValidation:     "Dados inválidos. Revise as informações.",
	CategoryBusiness:       "Não foi possível concluir a operação.",
	CategoryServer:         "Erro no servidor. Tente novamente mais tarde.",
	CategoryCancelled:      "Operação cancelada.",
	CategoryUnknown:        "Ocorreu um erro inesperado.",
}

var retryableCategories = map[Category]bool{
	CategoryNetwork: true,
	CategoryTimeout: true,
	CategoryServer:  true,
}

// Error is the categorized failure surfaced by the gateway.
type Error struct {
	Category  Category
	Message   string // fixed user-facing message for the category
	Status    int    // HTTP status, 0 for transport-level failures
	Retryable bool
	Err       error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Category, e.Status)
	}
	return string(e.Category)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(category Category, status int, cause error) *Error {
	return &Error{
		Category:  category,
		Message:   userMessages[category],
		Status:    status,
		Retryable: retryableCategories[category],
		Err:       cause,
	}
}

// categoryForStatus maps an HTTP status the server answered with. Only
// statuses >= 500 count as transport-level failures worth retrying; 4xx is
// a normal response to inspect.
func categoryForStatus(status int) Category {
	switch {
	case status == 401:
		return CategoryAuthentication
	case status == 403:
		return CategoryAuthorization
	case status == 400 || status == 422:
		return CategoryValidation
	case status == 409:
		return CategoryBusiness
	case status >= 500:
		return CategoryServer
	case status >= 400:
		return CategoryUnknown
	default:
		return CategoryUnknown
	}
}
