// Package token genera los códigos opacos del ledger y su forma persistida.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// CodeBytes es la entropía de un código: 32 bytes -> 43 chars base64url.
const CodeBytes = 32

// NewCode genera un código opaco (base64url sin padding) leyendo de r.
// r nil usa crypto/rand.
func NewCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, CodeBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Key devuelve sha256(code) en base64url sin padding: la clave con la que
// se guarda el registro. El código crudo nunca se persiste.
func Key(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
