package templates

import (
	"testing"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/stretchr/testify/require"
)

var alice = notification.ResolvedIdentity{
	Email:       "alice@example.com",
	DisplayName: "Alice",
	AccountKind: repository.AccountConsumer,
}

func sampleOrder() *notification.Order {
	return &notification.Order{
		ID:       "o-1",
		Number:   "1001",
		Currency: "sek",
		Items: []notification.OrderItem{
			{Name: "Mug <large>", Quantity: 2, UnitPrice: 12500},
		},
		Shipping: 4900,
		Total:    29900,
		ShippingAddress: &notification.Address{
			Line1: "Storgatan 1", PostalCode: "111 22", City: "Stockholm", Country: "SE",
		},
	}
}

func samplePayloads() map[notification.Kind]notification.Payload {
	exp := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	return map[notification.Kind]notification.Payload{
		notification.KindOrderConfirmation: notification.OrderConfirmation{Order: sampleOrder()},
		notification.KindOrderStatusUpdate: notification.OrderStatusUpdate{
			Order: sampleOrder(), Status: "shipped", TrackingNumber: "TRK1", TrackingURL: "https://track.example.com/TRK1",
		},
		notification.KindAdminOrderNotification: notification.AdminOrderNotification{
			Order: sampleOrder(), CustomerEmail: "alice@example.com", CustomerName: "Alice",
		},
		notification.KindPasswordReset:     notification.PasswordReset{Code: "c", ResetURL: "https://shop.example.com/reset?code=c", ExpiresAt: exp},
		notification.KindLoginCredentials:  notification.LoginCredentials{Username: "alice", Password: "s3cret", LoginURL: "https://shop.example.com/login"},
		notification.KindAffiliateWelcome:  notification.AffiliateWelcome{AffiliateCode: "AFF-9", PortalURL: "https://aff.example.com", CommissionRate: 0.125},
		notification.KindEmailVerification: notification.EmailVerification{Code: "c", VerifyURL: "https://shop.example.com/verify?code=c", ExpiresAt: exp},
	}
}

func TestRender_EveryKindEveryLanguage(t *testing.T) {
	s := MustNew(Options{Brand: "Acme"})
	payloads := samplePayloads()

	for _, k := range notification.Kinds() {
		for _, lang := range Languages() {
			msg, err := s.Render(k, lang, alice, payloads[k])
			require.NoError(t, err, "%s/%s", k, lang)
			require.NotEmpty(t, msg.Subject, "%s/%s", k, lang)
			require.NotEmpty(t, msg.HTML, "%s/%s", k, lang)
			require.Contains(t, msg.HTML, `lang="`+lang+`"`)
			require.Contains(t, msg.HTML, "Acme")
			require.Empty(t, msg.Text)
		}
	}
}

func TestRender_OrderConfirmation(t *testing.T) {
	s := MustNew(Options{})
	msg, err := s.Render(notification.KindOrderConfirmation, "en", alice, samplePayloads()[notification.KindOrderConfirmation])
	require.NoError(t, err)

	require.Equal(t, "Order confirmation 1001", msg.Subject)
	require.Contains(t, msg.HTML, "Hi Alice,")
	require.Contains(t, msg.HTML, "250.00 SEK")
	require.Contains(t, msg.HTML, "299.00 SEK")
	require.Contains(t, msg.HTML, "Stockholm")
	require.Contains(t, msg.HTML, "Mug &lt;large&gt;", "item names are escaped")
}

func TestRender_Swedish(t *testing.T) {
	s := MustNew(Options{})
	msg, err := s.Render(notification.KindOrderStatusUpdate, "sv", alice, samplePayloads()[notification.KindOrderStatusUpdate])
	require.NoError(t, err)
	require.Equal(t, "Uppdatering av order 1001: shipped", msg.Subject)
	require.Contains(t, msg.HTML, "Hej Alice,")
	require.Contains(t, msg.HTML, "https://track.example.com/TRK1")
}

func TestRender_UnknownLanguageFallsBack(t *testing.T) {
	s := MustNew(Options{})
	msg, err := s.Render(notification.KindEmailVerification, "de", alice, samplePayloads()[notification.KindEmailVerification])
	require.NoError(t, err)
	require.Equal(t, "Verify your email address", msg.Subject)
	require.Contains(t, msg.HTML, "2026-01-02 15:04 UTC")
}

func TestRender_AffiliateCommission(t *testing.T) {
	s := MustNew(Options{})
	msg, err := s.Render(notification.KindAffiliateWelcome, "en", alice, samplePayloads()[notification.KindAffiliateWelcome])
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Commission rate: 12.5%")
}

func TestRender_MissingField(t *testing.T) {
	s := MustNew(Options{})
	_, err := s.Render(notification.KindOrderConfirmation, "en", alice, notification.OrderConfirmation{})

	var tie *notification.TemplateInputError
	require.ErrorAs(t, err, &tie)
	require.Equal(t, "orderData", tie.Field)
}

func TestRender_PayloadMismatch(t *testing.T) {
	s := MustNew(Options{})
	_, err := s.Render(notification.KindPasswordReset, "en", alice, samplePayloads()[notification.KindEmailVerification])
	require.True(t, notification.IsTemplateInput(err))
}

func TestRender_UnknownKind(t *testing.T) {
	s := MustNew(Options{})
	_, err := s.Render(notification.Kind("fax"), "en", alice, nil)
	require.ErrorIs(t, err, notification.ErrUnknownKind)
}

func TestTranslate_Fallbacks(t *testing.T) {
	require.Equal(t, "Hej Bob,", translate("sv", "greeting", "Bob"))
	require.Equal(t, "Hi Bob,", translate("xx", "greeting", "Bob"))
	require.Equal(t, "no.such.key", translate("en", "no.such.key"))
}
