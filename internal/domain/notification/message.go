package notification

import (
	"net/mail"
	"strings"
)

// RenderedMessage es la salida de un renderer.
type RenderedMessage struct {
	Subject string
	HTML    string
	Text    string
}

// Sender es la identidad remitente (display name + address).
type Sender struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// String formatea el remitente como cabecera From (RFC 5322).
func (s Sender) String() string {
	if strings.TrimSpace(s.Name) == "" {
		return s.Address
	}
	return (&mail.Address{Name: s.Name, Address: s.Address}).String()
}

// DeliveryOutcome es el resultado uniforme de un envío.
// Con Success=true MessageID es significativo; con Success=false lo es Error.
type DeliveryOutcome struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	DiagCode  string `json:"diagCode,omitempty"`
}
