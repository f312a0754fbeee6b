package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/ports"
	"github.com/afaf/accounts/internal/core/security"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	byID      map[uuid.UUID]*domain.Account
	createErr error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[uuid.UUID]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return domain.ErrAccountExists
		}
	}
	r.byID[a.ID] = cloneAccount(a)
	return nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range r.byID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string, updatedAt time.Time) error {
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = updatedAt
	return nil
}

func (r *stubAccountRepo) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role, updatedAt time.Time) error {
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Role = role
	a.UpdatedAt = updatedAt
	return nil
}

func (r *stubAccountRepo) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range r.byID {
		out = append(out, cloneAccount(a))
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubAccountRepo) Ping(context.Context) error { return nil }

type stubThrottle struct {
	blocked  bool
	failures map[string]int
	resets   int
}

func (t *stubThrottle) Blocked(_ context.Context, _ string) (bool, error) { return t.blocked, nil }

func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	if t.failures == nil {
		t.failures = make(map[string]int)
	}
	t.failures[email]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, _ string) error {
	t.resets++
	return nil
}

type stubAudit struct {
	events []domain.AuthEvent
}

func (a *stubAudit) Record(e domain.AuthEvent) { a.events = append(a.events, e) }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var testNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc      *AccountService
	repo     *stubAccountRepo
	tokens   *security.TokenService
	throttle *stubThrottle
	audit    *stubAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTokenService("secret", time.Hour, security.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	repo := newStubAccountRepo()
	throttle := &stubThrottle{}
	audit := &stubAudit{}
	svc := NewAccountService(repo, security.NewBcryptHasher(bcrypt.MinCost), tokens, zerolog.Nop(),
		WithLoginThrottle(throttle),
		WithAuditRecorder(audit),
		WithClock(func() time.Time { return testNow }),
	)
	return &fixture{svc: svc, repo: repo, tokens: tokens, throttle: throttle, audit: audit}
}

func (f *fixture) register(t *testing.T, email, password, role string) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Name: "Test", Email: email, Password: password, Role: role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAccountService_Register_DefaultsToUser(t *testing.T) {
	f := newFixture(t)

	res := f.register(t, "a@x.com", "LongEnough1", "")
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.Account.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %s", res.Account.Role)
	}

	claims, err := f.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.Role != "user" || claims.Email != "a@x.com" || claims.Subject != res.Account.ID.String() {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	stored := f.repo.byID[res.Account.ID]
	if stored.PasswordHash == "LongEnough1" {
		t.Fatalf("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("LongEnough1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !stored.CreatedAt.Equal(testNow) || !stored.UpdatedAt.Equal(testNow) {
		t.Fatalf("timestamps not set: %v %v", stored.CreatedAt, stored.UpdatedAt)
	}
}

func TestAccountService_Register_ExplicitRoleAndEmailNormalization(t *testing.T) {
	f := newFixture(t)

	res := f.register(t, "  Mod@X.com ", "LongEnough1", "Moderator")
	if res.Account.Role != domain.RoleModerator {
		t.Fatalf("expected moderator, got %s", res.Account.Role)
	}
	if res.Account.Email != "mod@x.com" {
		t.Fatalf("expected normalized email, got %q", res.Account.Email)
	}
}

func TestAccountService_Register_PaddedRoleRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Name: "Pad", Email: "pad@x.com", Password: "LongEnough1", Role: " admin",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.repo.byID) != 0 {
		t.Fatalf("account stored despite invalid role")
	}
}

func TestAccountService_TimestampsAreWholeSeconds(t *testing.T) {
	clock := testNow.Add(123456789 * time.Nanosecond)
	tokens, err := security.NewTokenService("secret", time.Hour, security.WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, security.NewBcryptHasher(bcrypt.MinCost), tokens, zerolog.Nop(),
		WithClock(func() time.Time { return clock }),
	)

	res, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Sec", Email: "sec@x.com", Password: "LongEnough1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !res.Account.CreatedAt.Equal(testNow) || !res.Account.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected timestamps truncated to %v, got %v / %v", testNow, res.Account.CreatedAt, res.Account.UpdatedAt)
	}

	if _, err := svc.ChangeRole(context.Background(), domain.RoleAdmin, res.Account.ID, "moderator"); err != nil {
		t.Fatalf("change role: %v", err)
	}
	if got := repo.byID[res.Account.ID].UpdatedAt; !got.Equal(testNow) {
		t.Fatalf("expected update timestamp %v, got %v", testNow, got)
	}
}

func TestAccountService_Register_UnknownRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Name: "Eve", Email: "eve@x.com", Password: "LongEnough1", Role: "superuser",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.repo.byID) != 0 {
		t.Fatalf("account persisted despite invalid role")
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	f := newFixture(t)

	f.register(t, "a@x.com", "LongEnough1", "")
	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Name: "Again", Email: "A@x.com", Password: "LongEnough2",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAccountService_Register_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Name: "Bob", Email: "bob@x.com", Password: "LongEnough1",
	})
	if err == nil || errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAccountService_Login_Success(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "carol@x.com", "s3cretPass", "admin")

	res, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "Carol@x.com", Password: "s3cretPass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Account.ID != reg.Account.ID {
		t.Fatalf("logged into wrong account")
	}

	id, err := f.tokens.ExtractAccountID(res.Token)
	if err != nil || id != reg.Account.ID {
		t.Fatalf("token subject mismatch: %s %v", id, err)
	}
	if f.throttle.resets != 1 {
		t.Fatalf("expected throttle reset on success")
	}
}

func TestAccountService_Login_UniformFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dave@x.com", "goodpass1", "")

	_, wrongPassword := f.svc.Login(context.Background(), ports.LoginInput{Email: "dave@x.com", Password: "badpass11"})
	_, unknownEmail := f.svc.Login(context.Background(), ports.LoginInput{Email: "ghost@x.com", Password: "badpass11"})

	for _, err := range []error{wrongPassword, unknownEmail} {
		if !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("expected authentication error, got %v", err)
		}
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}
	if f.throttle.failures["dave@x.com"] != 1 || f.throttle.failures["ghost@x.com"] != 1 {
		t.Fatalf("failures not counted for both cases: %v", f.throttle.failures)
	}
}

func TestAccountService_Login_Throttled(t *testing.T) {
	f := newFixture(t)
	f.register(t, "erin@x.com", "goodpass1", "")
	f.throttle.blocked = true

	_, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "erin@x.com", Password: "goodpass1"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Profile / ChangePassword
// ---------------------------------------------------------------------------

func TestAccountService_Profile(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "p@x.com", "LongEnough1", "")

	got, err := f.svc.Profile(context.Background(), reg.Account.ID)
	if err != nil || got.Email != "p@x.com" {
		t.Fatalf("profile: %+v %v", got, err)
	}

	if _, err := f.svc.Profile(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "frank@x.com", "oldPassword1", "")
	later := testNow.Add(time.Minute)
	f.svc.now = func() time.Time { return later }

	err := f.svc.ChangePassword(context.Background(), ports.ChangePasswordInput{
		AccountID: reg.Account.ID, CurrentPassword: "wrong-one", NewPassword: "newPassword1",
	})
	if !errors.Is(err, domain.ErrAuthentication) || err.Error() != domain.MsgCurrentPasswordInvalid {
		t.Fatalf("expected current password error, got %v", err)
	}

	err = f.svc.ChangePassword(context.Background(), ports.ChangePasswordInput{
		AccountID: reg.Account.ID, CurrentPassword: "oldPassword1", NewPassword: "newPassword1",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if !f.repo.byID[reg.Account.ID].UpdatedAt.Equal(later) {
		t.Fatalf("updated_at not touched")
	}

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "frank@x.com", Password: "oldPassword1"}); err == nil {
		t.Fatalf("old password still accepted")
	}
	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "frank@x.com", Password: "newPassword1"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestAccountService_ChangePassword_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ChangePassword(context.Background(), ports.ChangePasswordInput{
		AccountID: uuid.New(), CurrentPassword: "x", NewPassword: "newPassword1",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Admin operations
// ---------------------------------------------------------------------------

func TestAccountService_AdminCreate(t *testing.T) {
	f := newFixture(t)
	in := ports.AdminCreateInput{Name: "Mo", Email: "mo@x.com", Password: "LongEnough1", Role: "moderator"}

	for _, requester := range []domain.Role{domain.RoleUser, domain.RoleModerator} {
		if _, err := f.svc.AdminCreate(context.Background(), requester, in); !errors.Is(err, domain.ErrAuthorization) {
			t.Fatalf("%s: expected authorization error, got %v", requester, err)
		}
	}
	if len(f.repo.byID) != 0 {
		t.Fatalf("unauthorized requester created an account")
	}

	acc, err := f.svc.AdminCreate(context.Background(), domain.RoleAdmin, in)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if acc.Role != domain.RoleModerator {
		t.Fatalf("expected moderator, got %s", acc.Role)
	}

	if _, err := f.svc.AdminCreate(context.Background(), domain.RoleAdmin, in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}

	missingRole := in
	missingRole.Email, missingRole.Role = "other@x.com", ""
	if _, err := f.svc.AdminCreate(context.Background(), domain.RoleAdmin, missingRole); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing role, got %v", err)
	}
}

func TestAccountService_ChangeRole(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "u@x.com", "LongEnough1", "")

	if _, err := f.svc.ChangeRole(context.Background(), domain.RoleModerator, reg.Account.ID, "admin"); !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, err := f.svc.ChangeRole(context.Background(), domain.RoleAdmin, reg.Account.ID, "owner"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.ChangeRole(context.Background(), domain.RoleAdmin, uuid.New(), "admin"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	acc, err := f.svc.ChangeRole(context.Background(), domain.RoleAdmin, reg.Account.ID, "moderator")
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if acc.Role != domain.RoleModerator {
		t.Fatalf("role not updated: %s", acc.Role)
	}
}

func TestAccountService_List(t *testing.T) {
	f := newFixture(t)
	f.register(t, "one@x.com", "LongEnough1", "")
	f.register(t, "two@x.com", "LongEnough1", "")

	if _, err := f.svc.List(context.Background(), domain.RoleUser, 10, 0); !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	accounts, err := f.svc.List(context.Background(), domain.RoleModerator, 0, -5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
}

func TestAccountService_AuditTrail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "audit@x.com", "LongEnough1", "")
	_, _ = f.svc.Login(context.Background(), ports.LoginInput{Email: "audit@x.com", Password: "nope-nope"})

	if len(f.audit.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(f.audit.events))
	}
	if f.audit.events[0].Type != domain.EventRegistered || f.audit.events[0].Outcome != domain.OutcomeSuccess {
		t.Fatalf("unexpected first event: %+v", f.audit.events[0])
	}
	if f.audit.events[1].Type != domain.EventLogin || f.audit.events[1].Outcome != domain.OutcomeFailure {
		t.Fatalf("unexpected second event: %+v", f.audit.events[1])
	}
}
