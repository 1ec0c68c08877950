package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es la forma estándar de un error expuesto por la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap crea un AppError envolviendo un error existente
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// FromError convierte un error genérico en AppError. Si la cadena no trae
// ninguno, devuelve un 500 conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle adicional.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 400 Bad Request
var (
	ErrBadRequest     = New(http.StatusBadRequest, "BAD_REQUEST", "La solicitud es inválida.")
	ErrInvalidJSON    = New(http.StatusBadRequest, "INVALID_JSON", "El cuerpo de la solicitud no es un JSON válido.")
	ErrMissingFields  = New(http.StatusBadRequest, "MISSING_FIELDS", "Faltan campos requeridos.")
	ErrUnknownKind    = New(http.StatusBadRequest, "UNKNOWN_KIND", "El tipo de notificación no existe.")
	ErrTemplateInput  = New(http.StatusBadRequest, "TEMPLATE_INPUT_INVALID", "Los datos no alcanzan para armar el email.")
	ErrInvalidEmail   = New(http.StatusBadRequest, "INVALID_RECIPIENT", "La dirección de destino es inválida.")
	ErrInvalidMessage = New(http.StatusBadRequest, "INVALID_TEMPLATE", "El mensaje renderizado es inválido.")
)

// 401 Unauthorized
var (
	ErrTokenMissing = New(http.StatusUnauthorized, "TOKEN_MISSING", "Falta el token de autenticación.")
	ErrTokenInvalid = New(http.StatusUnauthorized, "TOKEN_INVALID", "El token es inválido o expiró.")
)

// 404 / 405 / 410
var (
	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "El recurso solicitado no existe.")
	ErrRouteNotFound     = New(http.StatusNotFound, "ROUTE_NOT_FOUND", "La ruta solicitada no existe.")
	ErrRecipientNotFound = New(http.StatusNotFound, "RECIPIENT_NOT_FOUND", "No se pudo resolver el destinatario.")
	ErrCodeNotFound      = New(http.StatusNotFound, "CODE_NOT_FOUND", "El código no existe.")
	ErrMethodNotAllowed  = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método no permitido.")
	ErrCodeExpired       = New(http.StatusGone, "CODE_EXPIRED", "El código expiró.")
)

// 413 / 422 / 429
var (
	ErrBodyTooLarge      = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "El cuerpo de la solicitud es demasiado grande.")
	ErrPasswordTooWeak   = New(http.StatusUnprocessableEntity, "PASSWORD_TOO_WEAK", "La contraseña no cumple la política.")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Demasiadas solicitudes, intentá más tarde.")
)

// 5xx
var (
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Ocurrió un error interno.")
	ErrDeliveryFailed      = New(http.StatusBadGateway, "DELIVERY_FAILED", "No se pudo entregar el email.")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "El servicio no está disponible.")
)
