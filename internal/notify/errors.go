package notify

import (
	"fmt"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/identity"
)

// ErrIdentityNotFound se re-exporta para que los callers no dependan de
// internal/identity.
var ErrIdentityNotFound = identity.ErrIdentityNotFound

// ResolutionError envuelve la falla de resolución con el contexto del evento.
type ResolutionError struct {
	Kind       notification.Kind
	UserID     string
	CustomerID string
	HasContact bool
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("notify: cannot resolve recipient for %s (userId=%q customerId=%q contact=%t): %v",
		e.Kind, e.UserID, e.CustomerID, e.HasContact, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
