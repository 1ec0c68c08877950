package notification

import (
	"errors"
	"fmt"
)

// ErrUnknownKind se retorna al decodificar un kind fuera del conjunto cerrado.
var ErrUnknownKind = errors.New("notification: unknown kind")

// TemplateInputError indica que el payload no trae un campo que el kind exige.
// Siempre se detecta antes de cualquier I/O.
type TemplateInputError struct {
	Kind  Kind
	Field string
}

func (e *TemplateInputError) Error() string {
	return fmt.Sprintf("template input: %s requires %q", e.Kind, e.Field)
}

func missing(k Kind, field string) error {
	return &TemplateInputError{Kind: k, Field: field}
}

// IsTemplateInput verifica si err (o alguna causa) es un TemplateInputError.
func IsTemplateInput(err error) bool {
	var tie *TemplateInputError
	return errors.As(err, &tie)
}
