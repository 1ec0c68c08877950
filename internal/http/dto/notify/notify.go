// Package notify contiene los DTOs de notificaciones y del ledger.
package notify

import (
	"encoding/json"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
)

// SendRequest es el cuerpo de POST /v1/notifications.
type SendRequest struct {
	Kind                string                `json:"kind"`
	Payload             json.RawMessage       `json:"payload"`
	UserID              string                `json:"userId,omitempty"`
	CustomerID          string                `json:"customerId,omitempty"`
	Contact             *notification.Contact `json:"contact,omitempty"`
	Source              string                `json:"source,omitempty"`
	Language            string                `json:"language,omitempty"`
	IsAdminNotification bool                  `json:"isAdminNotification,omitempty"`
}

// IssueRequest es el cuerpo de POST /v1/verification y /v1/password-reset.
type IssueRequest struct {
	SubjectID string         `json:"subjectId"`
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	Language  string         `json:"language,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// IssueResponse no incluye el código: solo viaja por email.
type IssueResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
	MessageID string    `json:"messageId,omitempty"`
}

// ConsumeRequest es el cuerpo de los endpoints /consume.
type ConsumeRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"newPassword,omitempty"` // solo password-reset
}
