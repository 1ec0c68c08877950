// Package notification contiene el modelo del core de notificaciones:
// eventos, variantes de payload por kind, identidad resuelta y resultados.
package notification

import (
	"fmt"
	"strings"
)

// Kind es el conjunto cerrado de notificaciones que el orquestador sabe enviar.
type Kind string

const (
	KindOrderConfirmation      Kind = "order_confirmation"
	KindOrderStatusUpdate      Kind = "order_status_update"
	KindAdminOrderNotification Kind = "admin_order_notification"
	KindPasswordReset          Kind = "password_reset"
	KindLoginCredentials       Kind = "login_credentials"
	KindAffiliateWelcome       Kind = "affiliate_welcome"
	KindEmailVerification      Kind = "email_verification"
)

var allKinds = []Kind{
	KindOrderConfirmation,
	KindOrderStatusUpdate,
	KindAdminOrderNotification,
	KindPasswordReset,
	KindLoginCredentials,
	KindAffiliateWelcome,
	KindEmailVerification,
}

// Kinds devuelve todos los kinds en orden estable.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind acepta el nombre canónico (snake_case) o el nombre en CamelCase.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, k := range allKinds {
		if string(k) == norm || strings.ReplaceAll(string(k), "_", "") == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// RequiredFields lista los campos del payload que cada kind exige.
func (k Kind) RequiredFields() []string {
	switch k {
	case KindOrderConfirmation, KindAdminOrderNotification:
		return []string{"orderData", "orderData.items"}
	case KindOrderStatusUpdate:
		return []string{"orderData", "status"}
	case KindPasswordReset:
		return []string{"code", "resetUrl"}
	case KindLoginCredentials:
		return []string{"username", "password", "loginUrl"}
	case KindAffiliateWelcome:
		return []string{"affiliateCode", "portalUrl"}
	case KindEmailVerification:
		return []string{"code", "verifyUrl"}
	}
	return nil
}
