// Package emailtest provee un Transport espía para tests.
package emailtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dropDatabas3/mailgate/internal/email"
)

// Spy registra cada envelope recibido. Si Err no es nil, cada Send falla
// con ese error (y el envelope igual queda registrado).
type Spy struct {
	mu   sync.Mutex
	sent []email.Envelope
	Err  error
}

func (s *Spy) Send(_ context.Context, env email.Envelope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, env)
	if s.Err != nil {
		return "", s.Err
	}
	return fmt.Sprintf("<spy-%d@test>", len(s.sent)), nil
}

// Calls devuelve cuántas veces se invocó Send.
func (s *Spy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// Sent devuelve una copia de los envelopes registrados.
func (s *Spy) Sent() []email.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]email.Envelope, len(s.sent))
	copy(out, s.sent)
	return out
}

// Last devuelve el último envelope, o el valor cero si no hubo envíos.
func (s *Spy) Last() email.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return email.Envelope{}
	}
	return s.sent[len(s.sent)-1]
}
