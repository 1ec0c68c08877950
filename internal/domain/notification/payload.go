package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Payload es la variante cerrada de datos por kind. Solo los tipos de este
// paquete la implementan.
type Payload interface {
	Kind() Kind
	// Validate retorna *TemplateInputError si falta un campo requerido.
	Validate() error
	sealed()
}

// ─── Modelo de pedido compartido ───

// Money es un importe en unidades menores (centavos, öre).
type Money int64

// Format muestra el importe con dos decimales y la moneda.
func (m Money) Format(currency string) string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, v/100, v%100, strings.ToUpper(currency))
}

type OrderItem struct {
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
}

// LineTotal es cantidad * precio unitario.
func (i OrderItem) LineTotal() Money {
	return i.UnitPrice * Money(i.Quantity)
}

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Order struct {
	ID              string      `json:"id"`
	Number          string      `json:"number,omitempty"`
	Currency        string      `json:"currency"`
	Items           []OrderItem `json:"items"`
	Shipping        Money       `json:"shipping,omitempty"`
	Tax             Money       `json:"tax,omitempty"`
	Total           Money       `json:"total"`
	ShippingAddress *Address    `json:"shippingAddress,omitempty"`
	PlacedAt        time.Time   `json:"placedAt,omitempty"`
}

// Reference devuelve el número visible del pedido, o su ID.
func (o *Order) Reference() string {
	if o.Number != "" {
		return o.Number
	}
	return o.ID
}

func validateOrder(k Kind, o *Order) error {
	if o == nil {
		return missing(k, "orderData")
	}
	if len(o.Items) == 0 {
		return missing(k, "orderData.items")
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ─── Variantes ───

type OrderConfirmation struct {
	Order *Order `json:"orderData"`
}

func (OrderConfirmation) Kind() Kind { return KindOrderConfirmation }
func (p OrderConfirmation) Validate() error {
	return validateOrder(KindOrderConfirmation, p.Order)
}
func (OrderConfirmation) sealed() {}

type OrderStatusUpdate struct {
	Order          *Order `json:"orderData"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	TrackingURL    string `json:"trackingUrl,omitempty"`
}

func (OrderStatusUpdate) Kind() Kind { return KindOrderStatusUpdate }
func (p OrderStatusUpdate) Validate() error {
	if p.Order == nil {
		return missing(KindOrderStatusUpdate, "orderData")
	}
	if blank(p.Status) {
		return missing(KindOrderStatusUpdate, "status")
	}
	return nil
}
func (OrderStatusUpdate) sealed() {}

type AdminOrderNotification struct {
	Order         *Order `json:"orderData"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

func (AdminOrderNotification) Kind() Kind { return KindAdminOrderNotification }
func (p AdminOrderNotification) Validate() error {
	return validateOrder(KindAdminOrderNotification, p.Order)
}
func (AdminOrderNotification) sealed() {}

type PasswordReset struct {
	Code      string    `json:"code"`
	ResetURL  string    `json:"resetUrl"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (PasswordReset) Kind() Kind { return KindPasswordReset }
func (p PasswordReset) Validate() error {
	if blank(p.Code) {
		return missing(KindPasswordReset, "code")
	}
	if blank(p.ResetURL) {
		return missing(KindPasswordReset, "resetUrl")
	}
	return nil
}
func (PasswordReset) sealed() {}

type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	LoginURL string `json:"loginUrl"`
}

func (LoginCredentials) Kind() Kind { return KindLoginCredentials }
func (p LoginCredentials) Validate() error {
	switch {
	case blank(p.Username):
		return missing(KindLoginCredentials, "username")
	case p.Password == "":
		return missing(KindLoginCredentials, "password")
	case blank(p.LoginURL):
		return missing(KindLoginCredentials, "loginUrl")
	}
	return nil
}
func (LoginCredentials) sealed() {}

type AffiliateWelcome struct {
	AffiliateCode  string  `json:"affiliateCode"`
	PortalURL      string  `json:"portalUrl"`
	CommissionRate float64 `json:"commissionRate,omitempty"` // 0.1 = 10%
}

func (AffiliateWelcome) Kind() Kind { return KindAffiliateWelcome }
func (p AffiliateWelcome) Validate() error {
	if blank(p.AffiliateCode) {
		return missing(KindAffiliateWelcome, "affiliateCode")
	}
	if blank(p.PortalURL) {
		return missing(KindAffiliateWelcome, "portalUrl")
	}
	return nil
}
func (AffiliateWelcome) sealed() {}

type EmailVerification struct {
	Code      string    `json:"code"`
	VerifyURL string    `json:"verifyUrl"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (EmailVerification) Kind() Kind { return KindEmailVerification }
func (p EmailVerification) Validate() error {
	if blank(p.Code) {
		return missing(KindEmailVerification, "code")
	}
	if blank(p.VerifyURL) {
		return missing(KindEmailVerification, "verifyUrl")
	}
	return nil
}
func (EmailVerification) sealed() {}

// DecodePayload decodifica el JSON de un payload en la variante del kind.
// Un cuerpo vacío produce la variante vacía (Validate reportará qué falta).
func DecodePayload(k Kind, raw json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch k {
	case KindOrderConfirmation:
		p, err = decodeInto[OrderConfirmation](raw)
	case KindOrderStatusUpdate:
		p, err = decodeInto[OrderStatusUpdate](raw)
	case KindAdminOrderNotification:
		p, err = decodeInto[AdminOrderNotification](raw)
	case KindPasswordReset:
		p, err = decodeInto[PasswordReset](raw)
	case KindLoginCredentials:
		p, err = decodeInto[LoginCredentials](raw)
	case KindAffiliateWelcome:
		p, err = decodeInto[AffiliateWelcome](raw)
	case KindEmailVerification:
		p, err = decodeInto[EmailVerification](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", k, err)
	}
	return p, nil
}

func decodeInto[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
