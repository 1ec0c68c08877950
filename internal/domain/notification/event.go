package notification

import "strings"

// Contact es la descripción inline de un destinatario (típicamente un guest).
type Contact struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// HasEmail indica si el contacto trae un email utilizable.
func (c *Contact) HasEmail() bool {
	return c != nil && strings.TrimSpace(c.Email) != ""
}

// Event es el pedido de orquestación. Vive lo que dura una llamada a Send.
//
// Recipient, si no es vacío, reemplaza la dirección de la identidad resuelta
// (la identidad sigue decidiendo idioma, sender y nombre). Lo usa el ledger:
// el código va a la dirección que se está verificando, no a la guardada.
// IsAdminNotification tiene precedencia sobre Recipient.
type Event struct {
	Kind                Kind
	Payload             Payload
	UserID              string
	CustomerID          string
	Contact             *Contact
	Recipient           string
	Source              string
	Language            string
	IsAdminNotification bool
}

// NewEvent construye un Event cuyo kind se deriva de la variante de payload.
func NewEvent(p Payload) Event {
	ev := Event{Payload: p}
	if p != nil {
		ev.Kind = p.Kind()
	}
	return ev
}

// CheckPayload valida que el payload exista, coincida con el kind y traiga
// los campos requeridos.
func (e Event) CheckPayload() error {
	if e.Payload == nil {
		return missing(e.Kind, "payload")
	}
	if e.Payload.Kind() != e.Kind {
		return missing(e.Kind, "payload")
	}
	return e.Payload.Validate()
}
