package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/mailgate/internal/util"
)

// Field es un alias para no importar zap en los llamadores.
type Field = zap.Field

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v time.Duration) zap.Field { return zap.Int64("duration_ms", v.Milliseconds()) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - NOTIFICACIONES
// =================================================================================

// Kind identifica el tipo de notificación (order_confirmation, email_verification...).
func Kind(v string) zap.Field { return zap.String("kind", v) }

// Recipient enmascara cada dirección antes de loguearla.
func Recipient(v string) zap.Field { return zap.String("recipient", util.MaskRecipients(v)) }

func AccountKind(v string) zap.Field { return zap.String("account_kind", v) }

func Language(v string) zap.Field { return zap.String("language", v) }

func Source(v string) zap.Field { return zap.String("source", v) }

func MessageID(v string) zap.Field { return zap.String("message_id", v) }

func SubjectID(v string) zap.Field { return zap.String("subject_id", v) }

// Purpose identifica la instancia del ledger (email_verification | password_reset).
func Purpose(v string) zap.Field { return zap.String("purpose", v) }

// State registra la etapa del orquestador.
func State(v string) zap.Field { return zap.String("state", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
