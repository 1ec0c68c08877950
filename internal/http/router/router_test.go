package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/email"
	"github.com/dropDatabas3/mailgate/internal/email/emailtest"
	"github.com/dropDatabas3/mailgate/internal/email/templates"
	healthctrl "github.com/dropDatabas3/mailgate/internal/http/controllers/health"
	notifyctrl "github.com/dropDatabas3/mailgate/internal/http/controllers/notify"
	mw "github.com/dropDatabas3/mailgate/internal/http/middlewares"
	"github.com/dropDatabas3/mailgate/internal/identity"
	"github.com/dropDatabas3/mailgate/internal/ledger"
	"github.com/dropDatabas3/mailgate/internal/notify"
	"github.com/dropDatabas3/mailgate/internal/rate"
	"github.com/dropDatabas3/mailgate/internal/security/password"
	"github.com/dropDatabas3/mailgate/internal/store/memory"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

type app struct {
	h     http.Handler
	spy   *emailtest.Spy
	store *memory.Store
}

type opts struct {
	auth    bool
	limiter rate.Limiter
	issue   int
	pinger  healthctrl.Pinger
}

func newApp(t *testing.T, o opts) app {
	t.Helper()
	st := memory.New()
	st.PutReseller(repository.Account{ID: "u1", Email: "a@b.com", DisplayName: "Anna", PreferredLanguage: "sv"})

	spy := &emailtest.Spy{}
	orch, err := notify.New(notify.Config{
		Resolver:  identity.NewResolver(st, ""),
		Renderer:  templates.MustNew(templates.Options{Brand: "Shop"}),
		Gateway:   email.NewGateway(spy, []string{"ops@shop.example.com"}),
		Senders:   notify.NewSenderDirectory(notification.Sender{Name: "Shop", Address: "no-reply@shop.example.com"}),
		Languages: templates.Languages(),
	})
	require.NoError(t, err)

	hash := password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}
	verify, err := ledger.NewVerification(ledger.Config{
		Records: st, Accounts: st, Notifier: orch, Hash: hash,
		LinkBase: "https://shop.example.com/verify",
	})
	require.NoError(t, err)
	reset, err := ledger.NewReset(ledger.Config{
		Records: st, Accounts: st, Notifier: orch, Hash: hash,
		LinkBase: "https://shop.example.com/reset",
		Policy:   &password.Policy{MinLength: 10, RequireDigit: true},
	})
	require.NoError(t, err)

	deps := Deps{
		Notifications: notifyctrl.NewNotificationsController(orch),
		Verification:  notifyctrl.NewLedgerController(verify),
		PasswordReset: notifyctrl.NewLedgerController(reset),
		Health: healthctrl.NewController("memory", "test",
			healthctrl.Check{Name: "storage", Pinger: st},
			healthctrl.Check{Name: "redis", Pinger: o.pinger, Optional: true},
		),
		RateLimiter: o.limiter,
		IssueLimit:  o.issue,
		IssueWindow: time.Minute,
	}
	if o.auth {
		deps.Auth = mw.ServiceAuth{Secret: secret, Issuer: "checkout"}
	}
	return app{h: New(deps), spy: spy, store: st}
}

func (a app) do(t *testing.T, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

var codeRE = regexp.MustCompile(`code=([A-Za-z0-9_-]{43})`)

func TestNotifications_DeliversToResolvedReseller(t *testing.T) {
	a := newApp(t, opts{})
	rec := a.do(t, http.MethodPost, "/v1/notifications", map[string]any{
		"kind":    "email_verification",
		"userId":  "u1",
		"payload": map[string]any{"code": "abc", "verifyUrl": "https://shop.example.com/verify?code=abc"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "sv", body["language"])
	require.Equal(t, []string{"a@b.com"}, a.spy.Last().To)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNotifications_ClientErrors(t *testing.T) {
	a := newApp(t, opts{})

	rec := a.do(t, http.MethodPost, "/v1/notifications", map[string]any{"kind": "nope", "userId": "u1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "UNKNOWN_KIND", decode(t, rec)["code"])

	rec = a.do(t, http.MethodPost, "/v1/notifications", map[string]any{
		"kind": "order_confirmation", "userId": "u1", "payload": map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "TEMPLATE_INPUT_INVALID", decode(t, rec)["code"])

	rec = a.do(t, http.MethodPost, "/v1/notifications", map[string]any{
		"kind":    "email_verification",
		"userId":  "ghost",
		"payload": map[string]any{"code": "abc", "verifyUrl": "https://x.example.com"},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "RECIPIENT_NOT_FOUND", decode(t, rec)["code"])

	rec = a.do(t, http.MethodPost, "/v1/notifications", map[string]any{"kind": "email_verification", "bogus": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_JSON", decode(t, rec)["code"])

	require.Zero(t, a.spy.Calls())
}

func TestNotifications_TransportFailureIs502WithResult(t *testing.T) {
	a := newApp(t, opts{})
	a.spy.Err = errors.New("dial tcp: connection refused")

	rec := a.do(t, http.MethodPost, "/v1/notifications", map[string]any{
		"kind":    "email_verification",
		"contact": map[string]any{"email": "guest@example.com"},
		"payload": map[string]any{"code": "abc", "verifyUrl": "https://x.example.com"},
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "failed", body["state"])
}

func TestKinds(t *testing.T) {
	a := newApp(t, opts{})
	rec := a.do(t, http.MethodGet, "/v1/kinds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["kinds"], len(notification.Kinds()))
}

func TestVerification_IssueThenConsumeTwice(t *testing.T) {
	a := newApp(t, opts{})

	rec := a.do(t, http.MethodPost, "/v1/verification", map[string]any{"subjectId": "u1", "email": "a@b.com"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.NotContains(t, rec.Body.String(), `"code"`)

	m := codeRE.FindStringSubmatch(a.spy.Last().HTML)
	require.Len(t, m, 2, a.spy.Last().HTML)

	rec = a.do(t, http.MethodPost, "/v1/verification/consume", map[string]any{"code": m[1]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, false, decode(t, rec)["alreadyVerified"])

	rec = a.do(t, http.MethodPost, "/v1/verification/consume", map[string]any{"code": m[1]})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["alreadyVerified"])

	acc, err := a.store.GetReseller(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, acc.EmailVerified)
}

func TestVerification_ConsumeErrors(t *testing.T) {
	a := newApp(t, opts{})

	rec := a.do(t, http.MethodPost, "/v1/verification/consume", map[string]any{"code": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "CODE_NOT_FOUND", decode(t, rec)["code"])

	rec = a.do(t, http.MethodPost, "/v1/verification/consume", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "MISSING_FIELDS", decode(t, rec)["code"])
}

func TestPasswordReset_WeakPasswordThenSuccess(t *testing.T) {
	a := newApp(t, opts{})

	rec := a.do(t, http.MethodPost, "/v1/password-reset", map[string]any{"subjectId": "u1", "email": "a@b.com"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	m := codeRE.FindStringSubmatch(a.spy.Last().HTML)
	require.Len(t, m, 2)

	rec = a.do(t, http.MethodPost, "/v1/password-reset/consume", map[string]any{"code": m[1], "newPassword": "short"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "PASSWORD_TOO_WEAK", body["code"])
	require.Equal(t, "too_short,missing_digit", body["detail"])

	rec = a.do(t, http.MethodPost, "/v1/password-reset/consume", map[string]any{"code": m[1], "newPassword": "long-enough-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.True(t, password.Verify("long-enough-1", a.store.PasswordHash("u1")))
}

func TestAuth_ServiceToken(t *testing.T) {
	a := newApp(t, opts{auth: true})

	rec := a.do(t, http.MethodGet, "/v1/kinds", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", decode(t, rec)["code"])

	sign := func(iss string, exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "checkout-svc", "iss": iss, "exp": exp.Unix()})
		s, err := tok.SignedString(secret)
		require.NoError(t, err)
		return "Bearer " + s
	}

	rec = a.do(t, http.MethodGet, "/v1/kinds", nil, "Authorization", sign("checkout", time.Now().Add(-time.Minute)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_INVALID", decode(t, rec)["code"])

	rec = a.do(t, http.MethodGet, "/v1/kinds", nil, "Authorization", sign("someone-else", time.Now().Add(time.Minute)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/kinds", nil, "Authorization", sign("checkout", time.Now().Add(time.Minute)))
	require.Equal(t, http.StatusOK, rec.Code)

	// /readyz queda fuera de la auth
	rec = a.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_IssueIsStricter(t *testing.T) {
	a := newApp(t, opts{limiter: rate.NewMemoryLimiter(100, time.Minute), issue: 1})

	body := map[string]any{"subjectId": "u1", "email": "a@b.com"}
	rec := a.do(t, http.MethodPost, "/v1/password-reset", body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))

	rec = a.do(t, http.MethodPost, "/v1/password-reset", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, 1, a.spy.Calls())

	// otros endpoints siguen con el límite general
	rec = a.do(t, http.MethodGet, "/v1/kinds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyz(t *testing.T) {
	a := newApp(t, opts{})
	rec := a.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "ready", body["status"])
	require.Equal(t, "disabled", body["components"].(map[string]any)["redis"].(map[string]any)["status"])

	a = newApp(t, opts{pinger: downPinger{}})
	rec = a.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "degraded", decode(t, rec)["status"])
}

func TestUnknownRouteAndMethod(t *testing.T) {
	a := newApp(t, opts{})

	rec := a.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ROUTE_NOT_FOUND", decode(t, rec)["code"])

	rec = a.do(t, http.MethodGet, "/v1/notifications", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
