package middlewares

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/mailgate/internal/http/errors"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

// ServiceAuth configura la validación de tokens de servicio (HS256).
type ServiceAuth struct {
	Secret []byte
	Issuer string // opcional; si está, se exige iss
}

// RequireServiceToken valida Authorization: Bearer <JWT> firmado con el
// secreto compartido y guarda claims y sub en el contexto. Sin secreto
// configurado no valida nada (solo dev; config lo rechaza en prod).
func RequireServiceToken(cfg ServiceAuth) Middleware {
	if len(cfg.Secret) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (any, error) { return cfg.Secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(ah) < len("bearer ") || !strings.EqualFold(ah[:len("bearer ")], "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mailgate", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("bearer "):])

			claims := jwt.MapClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mailgate", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithClaims(r.Context(), map[string]any(claims))
			if sub := ClaimString(claims, "sub"); sub != "" {
				ctx = WithService(ctx, sub)
				ctx = logger.WithFields(ctx, logger.String("service", sub))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
