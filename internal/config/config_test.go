package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("MAIL_FROM_ADDRESS", "no-reply@shop.example.com")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, "en", c.App.DefaultLanguage)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "log", c.Mail.Transport)
	require.Equal(t, 24*time.Hour, c.Ledger.VerifyTTL)
	require.Equal(t, time.Hour, c.Ledger.ResetTTL)
	require.Equal(t, 60, c.Rate.MaxRequests)
	require.Equal(t, 10, c.Security.PasswordPolicy.MinLength)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	p := writeYAML(t, `
app:
  env: staging
  default_language: sv
storage:
  driver: sqlite
  dsn: file:test.db
smtp:
  host: smtp.example.com
  port: 2525
mail:
  from_address: shop@example.com
  admin_recipients: [ops@example.com]
  senders:
    - kind: order_confirmation
      name: Orders
      address: orders@example.com
ledger:
  verify_ttl: 12h
  verify_url: https://shop.example.com/verify
  reset_url: https://shop.example.com/reset
security:
  password_blacklist_path: blacklist.txt
`)
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("MAIL_ADMIN_RECIPIENTS", "a@example.com, b@example.com,")
	t.Setenv("LEDGER_RESET_TTL", "30m")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "sv", c.App.DefaultLanguage)
	require.Equal(t, "sqlite", c.Storage.Driver)
	require.Equal(t, "smtp", c.Mail.Transport)
	require.Equal(t, 465, c.SMTP.Port)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, c.Mail.AdminRecipients)
	require.Equal(t, 12*time.Hour, c.Ledger.VerifyTTL)
	require.Equal(t, 30*time.Minute, c.Ledger.ResetTTL)
	require.Len(t, c.Mail.Senders, 1)
	require.Equal(t, "Orders", c.Mail.Senders[0].Name)
	require.Equal(t, filepath.Join(filepath.Dir(p), "blacklist.txt"), c.Security.PasswordBlacklistPath)
}

func TestValidate_Prod(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
storage:
  driver: postgres
rate:
  enabled: true
  driver: redis
`)
	_, err := Load(p)
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "storage.dsn is required")
	require.Contains(t, msg, "mail.transport=log is not allowed in prod")
	require.Contains(t, msg, "mail.from_address is required")
	require.Contains(t, msg, "ledger.verify_url must be an absolute URL")
	require.Contains(t, msg, "redis.addr is required")
	require.Contains(t, msg, "auth.service_secret")
}

func TestValidate_UnknownDrivers(t *testing.T) {
	t.Setenv("MAIL_FROM_ADDRESS", "x@example.com")
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := Load("")
	require.ErrorContains(t, err, `storage.driver "mongo" not supported`)
}
