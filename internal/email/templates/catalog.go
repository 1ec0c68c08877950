package templates

import "fmt"

// catalog: idioma -> clave -> formato (fmt). Las claves ausentes caen al
// catálogo default y, si tampoco existen, a la clave misma.
var catalog = map[string]map[string]string{
	"en": {
		"greeting": "Hi %s,",
		"signoff":  "Kind regards, %s",
		"footer":   "This is an automated message from %s. Please do not reply.",

		"order.item":     "Item",
		"order.qty":      "Qty",
		"order.price":    "Price",
		"order.shipping": "Shipping",
		"order.tax":      "Tax",
		"order.total":    "Total",
		"order.ship_to":  "Shipping address",

		"order_confirmation.subject": "Order confirmation %s",
		"order_confirmation.intro":   "Thank you for your order. We have received order %s and are getting it ready.",

		"order_status_update.subject":    "Update on order %s: %s",
		"order_status_update.intro":      "The status of order %s is now: %s.",
		"order_status_update.tracking":   "Tracking number: %s",
		"order_status_update.track_link": "Track your parcel",

		"admin_order_notification.subject":  "New order %s",
		"admin_order_notification.intro":    "A new order %s has been placed.",
		"admin_order_notification.customer": "Customer: %s",

		"password_reset.subject": "Reset your password",
		"password_reset.intro":   "We received a request to reset the password for your account.",
		"password_reset.action":  "Reset password",

		"login_credentials.subject":  "Your login details",
		"login_credentials.intro":    "An account has been created for you. Use the details below to log in.",
		"login_credentials.username": "Username: %s",
		"login_credentials.password": "Password: %s",
		"login_credentials.action":   "Log in",
		"login_credentials.change":   "Please change your password after your first login.",

		"affiliate_welcome.subject":    "Welcome to the affiliate program",
		"affiliate_welcome.intro":      "Your affiliate account is ready.",
		"affiliate_welcome.code":       "Your affiliate code: %s",
		"affiliate_welcome.commission": "Commission rate: %s",
		"affiliate_welcome.action":     "Open the affiliate portal",

		"email_verification.subject": "Verify your email address",
		"email_verification.intro":   "Confirm your email address to activate your account.",
		"email_verification.action":  "Verify email",

		"link.expires": "The link expires at %s.",
		"link.ignore":  "If you did not request this, you can ignore this email.",
		"link.plain":   "If the button does not work, copy this address into your browser: %s",
	},
	"sv": {
		"greeting": "Hej %s,",
		"signoff":  "Vänliga hälsningar, %s",
		"footer":   "Detta är ett automatiskt meddelande från %s. Svara inte på detta mejl.",

		"order.item":     "Artikel",
		"order.qty":      "Antal",
		"order.price":    "Pris",
		"order.shipping": "Frakt",
		"order.tax":      "Moms",
		"order.total":    "Totalt",
		"order.ship_to":  "Leveransadress",

		"order_confirmation.subject": "Orderbekräftelse %s",
		"order_confirmation.intro":   "Tack för din beställning. Vi har tagit emot order %s och förbereder den.",

		"order_status_update.subject":    "Uppdatering av order %s: %s",
		"order_status_update.intro":      "Status för order %s är nu: %s.",
		"order_status_update.tracking":   "Spårningsnummer: %s",
		"order_status_update.track_link": "Spåra ditt paket",

		"admin_order_notification.subject":  "Ny order %s",
		"admin_order_notification.intro":    "En ny order %s har lagts.",
		"admin_order_notification.customer": "Kund: %s",

		"password_reset.subject": "Återställ ditt lösenord",
		"password_reset.intro":   "Vi har fått en begäran om att återställa lösenordet för ditt konto.",
		"password_reset.action":  "Återställ lösenord",

		"login_credentials.subject":  "Dina inloggningsuppgifter",
		"login_credentials.intro":    "Ett konto har skapats åt dig. Använd uppgifterna nedan för att logga in.",
		"login_credentials.username": "Användarnamn: %s",
		"login_credentials.password": "Lösenord: %s",
		"login_credentials.action":   "Logga in",
		"login_credentials.change":   "Byt lösenord efter din första inloggning.",

		"affiliate_welcome.subject":    "Välkommen till affiliateprogrammet",
		"affiliate_welcome.intro":      "Ditt affiliatekonto är klart.",
		"affiliate_welcome.code":       "Din affiliatekod: %s",
		"affiliate_welcome.commission": "Provision: %s",
		"affiliate_welcome.action":     "Öppna affiliateportalen",

		"email_verification.subject": "Verifiera din e-postadress",
		"email_verification.intro":   "Bekräfta din e-postadress för att aktivera ditt konto.",
		"email_verification.action":  "Verifiera e-post",

		"link.expires": "Länken slutar gälla %s.",
		"link.ignore":  "Om du inte har begärt detta kan du ignorera mejlet.",
		"link.plain":   "Om knappen inte fungerar, kopiera denna adress till din webbläsare: %s",
	},
	"es": {
		"greeting": "Hola %s,",
		"signoff":  "Saludos, %s",
		"footer":   "Este es un mensaje automático de %s. Por favor no respondas.",

		"order.item":     "Artículo",
		"order.qty":      "Cant.",
		"order.price":    "Precio",
		"order.shipping": "Envío",
		"order.tax":      "Impuestos",
		"order.total":    "Total",
		"order.ship_to":  "Dirección de envío",

		"order_confirmation.subject": "Confirmación del pedido %s",
		"order_confirmation.intro":   "Gracias por tu compra. Recibimos el pedido %s y lo estamos preparando.",

		"order_status_update.subject":    "Actualización del pedido %s: %s",
		"order_status_update.intro":      "El estado del pedido %s ahora es: %s.",
		"order_status_update.tracking":   "Número de seguimiento: %s",
		"order_status_update.track_link": "Seguir tu paquete",

		"admin_order_notification.subject":  "Nuevo pedido %s",
		"admin_order_notification.intro":    "Se realizó un nuevo pedido %s.",
		"admin_order_notification.customer": "Cliente: %s",

		"password_reset.subject": "Restablecé tu contraseña",
		"password_reset.intro":   "Recibimos una solicitud para restablecer la contraseña de tu cuenta.",
		"password_reset.action":  "Restablecer contraseña",

		"login_credentials.subject":  "Tus datos de acceso",
		"login_credentials.intro":    "Creamos una cuenta para vos. Usá estos datos para ingresar.",
		"login_credentials.username": "Usuario: %s",
		"login_credentials.password": "Contraseña: %s",
		"login_credentials.action":   "Ingresar",
		"login_credentials.change":   "Cambiá tu contraseña después del primer ingreso.",

		"affiliate_welcome.subject":    "Bienvenido al programa de afiliados",
		"affiliate_welcome.intro":      "Tu cuenta de afiliado está lista.",
		"affiliate_welcome.code":       "Tu código de afiliado: %s",
		"affiliate_welcome.commission": "Comisión: %s",
		"affiliate_welcome.action":     "Abrir el portal de afiliados",

		"email_verification.subject": "Verificá tu email",
		"email_verification.intro":   "Confirmá tu dirección de email para activar tu cuenta.",
		"email_verification.action":  "Verificar email",

		"link.expires": "El enlace vence el %s.",
		"link.ignore":  "Si no solicitaste esto, podés ignorar este email.",
		"link.plain":   "Si el botón no funciona, copiá esta dirección en tu navegador: %s",
	},
}

func translate(lang, key string, args ...any) string {
	format, ok := catalog[lang][key]
	if !ok {
		format, ok = catalog[DefaultLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
