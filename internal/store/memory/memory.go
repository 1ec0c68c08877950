// Package memory implementa el adapter en memoria. Pensado para tests y
// para APP_ENV=dev sin base de datos.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/store"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(context.Context, store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

type ledgerKey struct {
	purpose repository.LedgerPurpose
	key     string
}

// Store guarda cuentas y registros del ledger en mapas. Thread-safe.
type Store struct {
	mu        sync.Mutex
	resellers map[string]repository.Account
	consumers map[string]repository.Account
	hashes    map[string]string
	ledger    map[ledgerKey]repository.LedgerRecord
	now       func() time.Time
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		resellers: make(map[string]repository.Account),
		consumers: make(map[string]repository.Account),
		hashes:    make(map[string]string),
		ledger:    make(map[ledgerKey]repository.LedgerRecord),
		now:       time.Now,
	}
}

// ─── AdapterConnection ───

func (s *Store) Name() string                            { return "memory" }
func (s *Store) Ping(context.Context) error              { return nil }
func (s *Store) Close() error                            { return nil }
func (s *Store) Accounts() repository.AccountRepository  { return s }
func (s *Store) AccountWriter() repository.AccountWriter { return s }
func (s *Store) Ledger() repository.LedgerRepository     { return s }

// ─── Seed ───

// PutReseller inserta o reemplaza una cuenta de revendedor.
func (s *Store) PutReseller(a repository.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resellers[a.ID] = a
}

// PutConsumer inserta o reemplaza una cuenta de consumidor.
func (s *Store) PutConsumer(a repository.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumers[a.ID] = a
}

// PasswordHash devuelve el hash guardado para subjectID (vacío si no hay).
func (s *Store) PasswordHash(subjectID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hashes[subjectID]
}

// ─── AccountRepository ───

func (s *Store) GetReseller(_ context.Context, id string) (*repository.Account, error) {
	return s.get(s.resellers, id)
}

func (s *Store) GetConsumer(_ context.Context, id string) (*repository.Account, error) {
	return s.get(s.consumers, id)
}

func (s *Store) get(m map[string]repository.Account, id string) (*repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := m[strings.TrimSpace(id)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

// ─── AccountWriter ───

func (s *Store) SetEmailVerified(_ context.Context, subjectID string) error {
	return s.update(subjectID, func(a *repository.Account) {
		a.EmailVerified = true
	})
}

func (s *Store) SetPasswordReset(_ context.Context, subjectID, passwordHash string) error {
	now := s.now()
	err := s.update(subjectID, func(a *repository.Account) {
		a.PasswordResetAt = &now
	})
	if err == nil && passwordHash != "" {
		s.mu.Lock()
		s.hashes[subjectID] = passwordHash
		s.mu.Unlock()
	}
	return err
}

// update aplica fn a la cuenta en ambos espacios de identidad.
func (s *Store) update(subjectID string, fn func(*repository.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, m := range []map[string]repository.Account{s.resellers, s.consumers} {
		if a, ok := m[subjectID]; ok {
			fn(&a)
			m[subjectID] = a
			found = true
		}
	}
	if !found {
		return repository.ErrNotFound
	}
	return nil
}

// ─── LedgerRepository ───

func (s *Store) Create(_ context.Context, rec repository.LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ledgerKey{rec.Purpose, rec.Key}
	if _, exists := s.ledger[k]; exists {
		return repository.ErrConflict
	}
	rec.Metadata = cloneMeta(rec.Metadata)
	s.ledger[k] = rec
	return nil
}

func (s *Store) Get(_ context.Context, purpose repository.LedgerPurpose, key string) (*repository.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ledger[ledgerKey{purpose, key}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.Metadata = cloneMeta(rec.Metadata)
	return &rec, nil
}

func (s *Store) MarkConsumed(_ context.Context, purpose repository.LedgerPurpose, key string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ledgerKey{purpose, key}
	rec, ok := s.ledger[k]
	if !ok {
		return false, repository.ErrNotFound
	}
	if rec.Consumed || rec.Expired(at) {
		return false, nil
	}
	rec.Consumed = true
	rec.ConsumedAt = &at
	s.ledger[k] = rec
	return true, nil
}

func (s *Store) Delete(_ context.Context, purpose repository.LedgerPurpose, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ledgerKey{purpose, key}
	if _, ok := s.ledger[k]; !ok {
		return repository.ErrNotFound
	}
	delete(s.ledger, k)
	return nil
}

// Len devuelve la cantidad de registros del ledger para purpose.
func (s *Store) Len(purpose repository.LedgerPurpose) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.ledger {
		if k.purpose == purpose {
			n++
		}
	}
	return n
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
