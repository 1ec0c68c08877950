package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailgate/internal/config"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/email/emailtest"
	"github.com/dropDatabas3/mailgate/internal/store/memory"
)

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const baseYAML = `
app:
  env: dev
  brand: Shop
mail:
  transport: log
  from_address: no-reply@shop.example.com
  senders:
    - kind: order_confirmation
      address: orders@shop.example.com
    - account_kind: reseller
      name: Partner Desk
      address: partners@shop.example.com
profile:
  driver: memory
ledger:
  verify_url: https://shop.example.com/verify
`

func TestBuild_VerificationFlowUpdatesProjection(t *testing.T) {
	cfg := loadConfig(t, baseYAML)
	st := memory.New()
	st.PutReseller(repository.Account{ID: "u1", Email: "a@b.com", DisplayName: "Anna"})
	spy := &emailtest.Spy{}

	reg := prometheus.NewRegistry()
	a, err := Build(context.Background(), cfg, Options{Transport: spy, Store: st, Registry: reg, Gatherer: reg})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	rec := post(t, a.Handler, "/v1/verification", map[string]any{"subjectId": "u1", "email": "a@b.com"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	sent := spy.Last()
	require.Equal(t, "partners@shop.example.com", sent.From.Address)
	m := regexp.MustCompile(`code=([A-Za-z0-9_-]{43})`).FindStringSubmatch(sent.HTML)
	require.Len(t, m, 2)

	rec = post(t, a.Handler, "/v1/verification/consume", map[string]any{"code": m[1]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	flags, err := a.Projection.Flags(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, flags[repository.FlagEmailVerified])
}

func TestBuild_SenderRules(t *testing.T) {
	cfg := loadConfig(t, baseYAML)
	dir, err := senderDirectory(cfg)
	require.NoError(t, err)
	require.Equal(t, "orders@shop.example.com", dir.Lookup("order_confirmation", repository.AccountGuest).Address)
	require.Equal(t, "Shop", dir.Lookup("order_confirmation", repository.AccountGuest).Name)
	require.Equal(t, "no-reply@shop.example.com", dir.Lookup("password_reset", repository.AccountConsumer).Address)

	cfg.Mail.Senders = append(cfg.Mail.Senders, config.SenderRule{Kind: "newsletter", Address: "x@shop.example.com"})
	_, err = senderDirectory(cfg)
	require.Error(t, err)
}

func TestBuild_SQLiteAutoMigrate(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "mailgate.db") + "?_pragma=busy_timeout(5000)"
	cfg := loadConfig(t, baseYAML+`
storage:
  driver: sqlite
  dsn: "`+dsn+`"
  auto_migrate: true
`)
	reg := prometheus.NewRegistry()
	a, err := Build(context.Background(), cfg, Options{Transport: &emailtest.Spy{}, Registry: reg, Gatherer: reg})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	require.Equal(t, "sqlite", a.Store.Name())

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBuild_UnknownStorageFails(t *testing.T) {
	cfg := loadConfig(t, baseYAML)
	cfg.Storage.Driver = "cassandra"
	_, err := Build(context.Background(), cfg, Options{})
	require.Error(t, err)
}
