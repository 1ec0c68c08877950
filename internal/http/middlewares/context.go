package middlewares

import "context"

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxServiceKey   ctxKey = "service"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta las claims del token de servicio en el contexto.
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithService inyecta el servicio llamante (sub del token).
func WithService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, ctxServiceKey, service)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims retorna nil si el request no pasó por RequireServiceToken.
func GetClaims(ctx context.Context) map[string]any {
	if m, ok := ctx.Value(ctxClaimsKey).(map[string]any); ok {
		return m
	}
	return nil
}

// GetService obtiene el servicio llamante, o "".
func GetService(ctx context.Context) string {
	s, _ := ctx.Value(ctxServiceKey).(string)
	return s
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// ClaimString extrae un claim string de forma segura.
func ClaimString(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	s, _ := claims[key].(string)
	return s
}
