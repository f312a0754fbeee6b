package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PasswordHasher abstracts the credential hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// TokenIssuer abstracts the token service's minting side.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, email string, role domain.Role, now time.Time) (string, error)
}

// LoginThrottle counts failed logins per email (Redis).
type LoginThrottle interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// AuditRecorder receives audit events. Record must not block on I/O.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

type AccountService struct {
	repo     ports.AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	throttle LoginThrottle
	audit    AuditRecorder
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*AccountService)

func WithLoginThrottle(t LoginThrottle) Option {
	return func(s *AccountService) { s.throttle = t }
}

func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *AccountService) { s.audit = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *AccountService) { s.now = now }
}

func NewAccountService(
	repo ports.AccountRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	log zerolog.Logger,
	opts ...Option,
) *AccountService {
	s := &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		throttle: noopThrottle{},
		audit:    noopAudit{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a self-service account. The role defaults to user.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	role := domain.RoleUser
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, domain.ValidationError(err.Error())
		}
		role = parsed
	}

	account, err := s.create(ctx, in.Name, in.Email, in.Password, role)
	if err != nil {
		s.record(domain.EventRegistered, uuid.Nil, in.Email, domain.OutcomeFailure, kindOf(err))
		return nil, err
	}

	token, err := s.tokens.Issue(account.ID, account.Email, account.Role, s.now())
	if err != nil {
		return nil, err
	}

	s.record(domain.EventRegistered, account.ID, account.Email, domain.OutcomeSuccess, "")
	s.log.Info().Str("account_id", account.ID.String()).Str("role", account.Role.String()).Msg("account registered")

	return &ports.AuthResult{Token: token, Account: account.Public()}, nil
}

// Login exchanges credentials for a token. Unknown email and wrong password
// produce the same error.
func (s *AccountService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)

	blocked, err := s.throttle.Blocked(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle check failed, continuing")
	} else if blocked {
		s.record(domain.EventLogin, uuid.Nil, email, domain.OutcomeFailure, "throttled")
		return nil, domain.ErrTooManyAttempts
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		// Burn a comparable amount of CPU so response time does not reveal
		// whether the email exists.
		_, _ = s.hasher.Verify(in.Password, s.dummyDigest())
		return nil, s.loginFailed(ctx, uuid.Nil, email)
	}

	ok, err := s.hasher.Verify(in.Password, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.loginFailed(ctx, account.ID, email)
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login throttle")
	}

	token, err := s.tokens.Issue(account.ID, account.Email, account.Role, s.now())
	if err != nil {
		return nil, err
	}

	s.record(domain.EventLogin, account.ID, email, domain.OutcomeSuccess, "")
	return &ports.AuthResult{Token: token, Account: account.Public()}, nil
}

func (s *AccountService) loginFailed(ctx context.Context, id uuid.UUID, email string) error {
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
	s.record(domain.EventLogin, id, email, domain.OutcomeFailure, "invalid credentials")
	return domain.AuthenticationError(domain.MsgInvalidCredentials)
}

// Profile returns the public view of an account.
func (s *AccountService) Profile(ctx context.Context, id uuid.UUID) (*domain.PublicAccount, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	account, err := s.repo.FindByID(ctx, in.AccountID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(in.CurrentPassword, account.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		s.record(domain.EventPasswordChanged, account.ID, account.Email, domain.OutcomeFailure, "current password incorrect")
		return domain.AuthenticationError(domain.MsgCurrentPasswordInvalid)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, account.ID, hash, s.timestamp()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.record(domain.EventPasswordChanged, account.ID, account.Email, domain.OutcomeSuccess, "")
	s.log.Info().Str("account_id", account.ID.String()).Msg("password changed")
	return nil
}

// AdminCreate creates an account with an explicit role on behalf of an admin.
func (s *AccountService) AdminCreate(ctx context.Context, requester domain.Role, in ports.AdminCreateInput) (*domain.PublicAccount, error) {
	if err := domain.CheckRole(requester, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Role) == "" {
		return nil, domain.ValidationError("role is required")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, domain.ValidationError(err.Error())
	}

	account, err := s.create(ctx, in.Name, in.Email, in.Password, role)
	if err != nil {
		s.record(domain.EventAdminCreated, uuid.Nil, in.Email, domain.OutcomeFailure, kindOf(err))
		return nil, err
	}

	s.record(domain.EventAdminCreated, account.ID, account.Email, domain.OutcomeSuccess, role.String())
	s.log.Info().Str("account_id", account.ID.String()).Str("role", role.String()).Msg("account created by admin")
	return account.Public(), nil
}

// ChangeRole sets a new role on an existing account. Admin only.
func (s *AccountService) ChangeRole(ctx context.Context, requester domain.Role, id uuid.UUID, role string) (*domain.PublicAccount, error) {
	if err := domain.CheckRole(requester, domain.RoleAdmin); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, domain.ValidationError(err.Error())
	}

	if err := s.repo.UpdateRole(ctx, id, parsed, s.timestamp()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("change role: %w", err)
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.record(domain.EventRoleChanged, account.ID, account.Email, domain.OutcomeSuccess, parsed.String())
	s.log.Info().Str("account_id", id.String()).Str("role", parsed.String()).Msg("account role changed")
	return account.Public(), nil
}

// List pages through accounts. Moderator or above.
func (s *AccountService) List(ctx context.Context, requester domain.Role, limit, offset int) ([]*domain.PublicAccount, error) {
	if err := domain.CheckRole(requester, domain.RoleModerator); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]*domain.PublicAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}
	return out, nil
}

func (s *AccountService) create(ctx context.Context, name, email, password string, role domain.Role) (*domain.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	account := &domain.Account{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// timestamp is the stored form of the current time: UTC, whole seconds,
// the resolution every account store keeps.
func (s *AccountService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *AccountService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy password digest")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AccountService) record(t domain.AuthEventType, id uuid.UUID, email, outcome, detail string) {
	s.audit.Record(domain.AuthEvent{
		Type:      t,
		AccountID: id,
		Email:     domain.NormalizeEmail(email),
		Outcome:   outcome,
		Detail:    detail,
		At:        s.now().UTC(),
	})
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}

type noopThrottle struct{}

func (noopThrottle) Blocked(context.Context, string) (bool, error) { return false, nil }
func (noopThrottle) RecordFailure(context.Context, string) error   { return nil }
func (noopThrottle) Reset(context.Context, string) error           { return nil }

type noopAudit struct{}

func (noopAudit) Record(domain.AuthEvent) {}
