package validation

import "regexp"

// Reglas para el tag "source" de un evento (checkout.order, ledger.password_reset):
// - Solo minúsculas.
// - Empieza y termina con [a-z0-9].
// - En el medio admite [a-z0-9:_.-].
// - Largo 1..64.
//
// El tag termina en logs y en el Result, por eso se acota.
var sourceRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidSource reporta si el tag cumple el patrón.
func ValidSource(name string) bool {
	return sourceRe.MatchString(name)
}
