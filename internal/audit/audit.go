// Package audit registra los eventos de seguridad del ledger (emisión y
// canje de códigos) en un logger dedicado, separado del log operativo.
package audit

import (
	"context"

	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

type Event string

const (
	CodeIssued   Event = "code_issued"
	CodeConsumed Event = "code_consumed"
	CodeReplayed Event = "code_replayed" // canje repetido de un código ya usado
	CodeExpired  Event = "code_expired"
)

// Log escribe el evento con el logger del contexto (request_id incluido).
func Log(ctx context.Context, ev Event, fields ...logger.Field) {
	fields = append(fields, logger.String("event", string(ev)))
	logger.From(ctx).Named("audit").Info(string(ev), fields...)
}
