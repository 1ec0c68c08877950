package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/notify"
)

const cliYAML = `
app:
  env: dev
  brand: Shop
mail:
  transport: log
  from_address: no-reply@shop.example.com
ledger:
  verify_url: https://shop.example.com/verify
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(config)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSend_PayloadFromFile(t *testing.T) {
	cfg := writeFile(t, "config.yaml", cliYAML)
	payload := writeFile(t, "order.json", `{
  "orderData": {
    "id": "o-1",
    "number": "1001",
    "currency": "sek",
    "total": 10000,
    "items": [{"name": "Mug", "quantity": 1, "unitPrice": 10000}]
  }
}`)

	out, err := run(t, cfg, "send",
		"--kind", "order_confirmation",
		"--email", "guest@example.com",
		"--name", "Greta",
		"--payload", "@"+payload,
	)
	require.NoError(t, err, out)

	var res notify.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.Success)
	require.NotEmpty(t, res.MessageID)
	require.Equal(t, notify.StateDelivered, res.State)
	require.Equal(t, notification.KindOrderConfirmation, res.Kind)
	require.Equal(t, "guest@example.com", res.Recipient)
	require.Equal(t, repository.AccountGuest, res.AccountKind)
	require.Equal(t, "cli", res.Source)
}

func TestSend_PayloadErrors(t *testing.T) {
	cfg := writeFile(t, "config.yaml", cliYAML)

	_, err := run(t, cfg, "send", "--kind", "order_confirmation", "--email", "g@example.com",
		"--payload", "@"+filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, cfg, "send", "--kind", "order_confirmation", "--email", "g@example.com",
		"--payload", `{"orderData":{"id":"o-1","items":[]}}`)
	require.True(t, notification.IsTemplateInput(err), "got %v", err)

	_, err = run(t, cfg, "send", "--kind", "newsletter", "--email", "g@example.com", "--payload", `{}`)
	require.Error(t, err)
}

func TestKinds_ListsEveryKind(t *testing.T) {
	out, err := run(t, "", "kinds")
	require.NoError(t, err)
	for _, k := range notification.Kinds() {
		require.Contains(t, out, string(k))
	}
	require.Contains(t, out, "orderData")
}

func TestMigrate_SQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "mailgate.db") + "?_pragma=busy_timeout(5000)"
	cfg := writeFile(t, "config.yaml", cliYAML+`
storage:
  driver: sqlite
  dsn: "`+dsn+`"
`)

	out, err := run(t, cfg, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "applied")

	out, err = run(t, cfg, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "skipped")
	require.NotContains(t, out, "applied")
}
