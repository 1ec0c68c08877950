package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/email"
	"github.com/dropDatabas3/mailgate/internal/email/emailtest"
	"github.com/dropDatabas3/mailgate/internal/email/templates"
	"github.com/dropDatabas3/mailgate/internal/identity"
	"github.com/dropDatabas3/mailgate/internal/notify"
	"github.com/dropDatabas3/mailgate/internal/security/password"
	"github.com/dropDatabas3/mailgate/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type countingWriter struct {
	repository.AccountWriter
	calls atomic.Int32
	err   error
}

func (w *countingWriter) SetEmailVerified(ctx context.Context, id string) error {
	w.calls.Add(1)
	if w.err != nil {
		return w.err
	}
	return w.AccountWriter.SetEmailVerified(ctx, id)
}

func (w *countingWriter) SetPasswordReset(ctx context.Context, id, hash string) error {
	w.calls.Add(1)
	if w.err != nil {
		return w.err
	}
	return w.AccountWriter.SetPasswordReset(ctx, id, hash)
}

type flagSpy struct {
	mu    sync.Mutex
	flags map[string]bool
	err   error
}

func (p *flagSpy) SetFlag(_ context.Context, subjectID, flag string, v bool) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.flags == nil {
		p.flags = map[string]bool{}
	}
	p.flags[subjectID+"/"+flag] = v
	return nil
}

type fixture struct {
	store    *memory.Store
	spy      *emailtest.Spy
	writer   *countingWriter
	profiles *flagSpy
	now      time.Time
	cfg      Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	st.PutReseller(repository.Account{ID: "u1", Email: "a@b.com", DisplayName: "Anna"})

	spy := &emailtest.Spy{}
	orch, err := notify.New(notify.Config{
		Resolver:  identity.NewResolver(st, ""),
		Renderer:  templates.MustNew(templates.Options{Brand: "Shop"}),
		Gateway:   email.NewGateway(spy, nil),
		Senders: notify.NewSenderDirectory(
			notification.Sender{Name: "Shop", Address: "no-reply@shop.example.com"},
			notify.SenderRule{AccountKind: repository.AccountReseller, Sender: notification.Sender{Name: "Partner Desk", Address: "partners@shop.example.com"}},
		),
		Languages: templates.Languages(),
	})
	require.NoError(t, err)

	f := &fixture{
		store:    st,
		spy:      spy,
		writer:   &countingWriter{AccountWriter: st},
		profiles: &flagSpy{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.cfg = Config{
		Records:  st,
		Accounts: f.writer,
		Profiles: f.profiles,
		Notifier: orch,
		LinkBase: "https://shop.example.com/verify",
		Hash:     password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32},
		Now:      func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) verification(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewVerification(f.cfg)
	require.NoError(t, err)
	return l
}

func (f *fixture) reset(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewReset(f.cfg)
	require.NoError(t, err)
	return l
}

var ctx = context.Background()

func TestVerification_IssueThenConsumeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com", Metadata: map[string]any{"origin": "signup"}})
	require.NoError(t, err)
	require.Len(t, iss.Code, 43)
	require.Equal(t, f.now.Add(24*time.Hour), iss.ExpiresAt)
	require.NotEmpty(t, iss.MessageID)

	sent := f.spy.Last()
	require.Equal(t, []string{"a@b.com"}, sent.To)
	require.Contains(t, sent.HTML, "https://shop.example.com/verify?code="+iss.Code)

	res, err := l.Consume(ctx, iss.Code)
	require.NoError(t, err)
	require.False(t, res.AlreadyVerified)
	require.Equal(t, "a@b.com", res.SubjectEmail)
	require.Equal(t, "signup", res.SubjectMetadata["origin"])

	acc, err := f.store.GetReseller(ctx, "u1")
	require.NoError(t, err)
	require.True(t, acc.EmailVerified)
	require.True(t, f.profiles.flags["u1/"+repository.FlagEmailVerified])

	again, err := l.Consume(ctx, iss.Code)
	require.NoError(t, err)
	require.True(t, again.AlreadyVerified)
	require.Equal(t, int32(1), f.writer.calls.Load())
}

func TestIssue_ResolvesSubjectForLanguageAndSender(t *testing.T) {
	f := newFixture(t)
	f.store.PutReseller(repository.Account{ID: "u2", Email: "old@b.com", DisplayName: "Sven", PreferredLanguage: "sv-SE"})
	f.store.PutConsumer(repository.Account{ID: "c9", Email: "c9@b.com", PreferredLanguage: "es"})
	l := f.verification(t)

	_, err := l.Issue(ctx, IssueRequest{SubjectID: "u2", Email: "sv@b.com"})
	require.NoError(t, err)
	sent := f.spy.Last()
	require.Equal(t, "Verifiera din e-postadress", sent.Subject)
	require.Equal(t, "partners@shop.example.com", sent.From.Address)
	require.Equal(t, []string{"sv@b.com"}, sent.To, "the code goes to the address being verified")

	_, err = l.Issue(ctx, IssueRequest{SubjectID: "c9", Email: "c9-new@b.com", Language: "en"})
	require.NoError(t, err)
	sent = f.spy.Last()
	require.Equal(t, "Verify your email address", sent.Subject)
	require.Equal(t, "no-reply@shop.example.com", sent.From.Address)
	require.Equal(t, []string{"c9-new@b.com"}, sent.To)

	_, err = l.Issue(ctx, IssueRequest{SubjectID: "unknown", Email: "guest@b.com"})
	require.NoError(t, err)
	require.Equal(t, []string{"guest@b.com"}, f.spy.Last().To)
	require.Equal(t, "no-reply@shop.example.com", f.spy.Last().From.Address)
}

func TestConsume_ExpiredLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)

	f.now = f.now.Add(25 * time.Hour)
	_, err = l.Consume(ctx, iss.Code)
	require.ErrorIs(t, err, ErrExpired)

	_, err = l.Consume(ctx, iss.Code)
	require.ErrorIs(t, err, ErrExpired)
	require.Zero(t, f.writer.calls.Load())
}

func TestConsume_UnknownCode(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	_, err := l.Consume(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = l.Consume(ctx, "  ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIssue_DeliveryFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.spy.Err = errors.New("535 authentication failed")
	l := f.verification(t)

	_, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Equal(t, 1, f.spy.Calls())
	require.Zero(t, f.store.Len(repository.PurposeEmailVerification))
}

func TestIssue_InvalidRecipientRollsBack(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	_, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "not-an-address"})
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Zero(t, f.spy.Calls())
	require.Zero(t, f.store.Len(repository.PurposeEmailVerification))
}

func TestIssue_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	_, err := l.Issue(ctx, IssueRequest{SubjectID: "u1"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Zero(t, f.spy.Calls())
}

func TestConsume_SideEffectFailuresStillConsume(t *testing.T) {
	f := newFixture(t)
	f.writer.err = errors.New("db down")
	f.profiles.err = errors.New("redis down")
	l := f.verification(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)

	res, err := l.Consume(ctx, iss.Code)
	require.NoError(t, err)
	require.False(t, res.AlreadyVerified)

	again, err := l.Consume(ctx, iss.Code)
	require.NoError(t, err)
	require.True(t, again.AlreadyVerified)
}

func TestConsume_ConcurrentCallersHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)

	const n = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Consume(ctx, iss.Code)
			if err == nil && !res.AlreadyVerified {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), winners.Load())
	require.Equal(t, int32(1), f.writer.calls.Load())
}

func TestReset_WithNewPasswordStoresHash(t *testing.T) {
	f := newFixture(t)
	f.cfg.LinkBase = "https://shop.example.com/reset?lang=sv"
	f.cfg.Policy = &password.Policy{MinLength: 10, RequireDigit: true}
	l := f.reset(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, f.now.Add(time.Hour), iss.ExpiresAt)
	require.Contains(t, f.spy.Last().HTML, "lang=sv")

	_, err = l.Consume(ctx, iss.Code, WithNewPassword("short"))
	require.ErrorIs(t, err, ErrInvalidPassword)
	var pe *password.PolicyError
	require.ErrorAs(t, err, &pe)
	require.Zero(t, f.writer.calls.Load())

	_, err = l.Consume(ctx, iss.Code, WithNewPassword("long-enough-1"))
	require.NoError(t, err)
	require.True(t, password.Verify("long-enough-1", f.store.PasswordHash("u1")))
	require.True(t, f.profiles.flags["u1/"+repository.FlagPasswordReset])
}

func TestReset_WithoutPasswordOnlyRecordsReset(t *testing.T) {
	f := newFixture(t)
	l := f.reset(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	_, err = l.Consume(ctx, iss.Code)
	require.NoError(t, err)

	acc, err := f.store.GetReseller(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, acc.PasswordResetAt)
	require.Empty(t, f.store.PasswordHash("u1"))
}

func TestVerification_RejectsNewPassword(t *testing.T) {
	f := newFixture(t)
	l := f.verification(t)

	iss, err := l.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	_, err = l.Consume(ctx, iss.Code, WithNewPassword("whatever-123"))
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCodesAreScopedByPurpose(t *testing.T) {
	f := newFixture(t)
	v := f.verification(t)
	r := f.reset(t)

	iss, err := v.Issue(ctx, IssueRequest{SubjectID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	_, err = r.Consume(ctx, iss.Code)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t)

	cfg := f.cfg
	cfg.LinkBase = "/relative"
	_, err := NewVerification(cfg)
	require.Error(t, err)

	cfg = f.cfg
	cfg.Notifier = nil
	_, err = NewReset(cfg)
	require.Error(t, err)
}
