// Package accounts composes credential hashing, token issuance and the
// account ledger into the registration/login/resolve flow.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sitirukayah12-del/sora2-demo/pkg/auth"
	"github.com/sitirukayah12-del/sora2-demo/pkg/ledger"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

const (
	// DefaultTokenTTL is how long issued bearer tokens stay valid.
	DefaultTokenTTL = 24 * time.Hour

	maxUsernameLen = 64
	maxEmailLen    = 254
)

var (
	// ErrInvalidCredentials is returned for every login failure, whether the
	// username is unknown or the password is wrong. Keeping the error uniform
	// prevents username enumeration; the distinction lives only in logs.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned for every token resolution failure.
	ErrUnauthenticated = auth.ErrUnauthenticated
)

// ValidationError reports a user-correctable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Service handles registration, login and token resolution.
type Service struct {
	ledger    *ledger.Ledger
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logging.Logger
}

// NewService creates an account service. ttl <= 0 selects DefaultTokenTTL.
func NewService(l *ledger.Ledger, jwtSecret []byte, ttl time.Duration, logger logging.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{ledger: l, jwtSecret: jwtSecret, tokenTTL: ttl, logger: logger}
}

// Register validates the input, hashes the password and creates the account
// with its signup bonus. The sequence is all-or-nothing: hashing happens
// before any write, and account creation is a single insert.
func (s *Service) Register(ctx context.Context, username, password string, email *string) (models.Account, error) {
	if username == "" {
		return models.Account{}, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if len(username) > maxUsernameLen {
		return models.Account{}, &ValidationError{Field: "username", Reason: "too long"}
	}
	if password == "" {
		return models.Account{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if email != nil && (*email == "" || len(*email) > maxEmailLen) {
		return models.Account{}, &ValidationError{Field: "email", Reason: "invalid"}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return models.Account{}, &ValidationError{Field: "password", Reason: "too long"}
		}
		return models.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.ledger.CreateAccount(ctx, username, hash, email)
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Login verifies the credentials and issues a bearer token. Unknown usernames
// and wrong passwords produce the identical error.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.ledger.FindAccount(ctx, username)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			s.logger.WithField("username", username).Warn("Login attempt for unknown account")
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up account: %w", err)
	}

	if !auth.CheckPassword(password, account.PasswordHash) {
		s.logger.WithField("username", username).Warn("Login attempt with wrong password")
		return "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(account.Username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// Resolve validates a bearer token and re-fetches the account it names. A
// token for an account that no longer exists resolves to ErrUnauthenticated,
// never to a stale object.
func (s *Service) Resolve(ctx context.Context, token string) (models.Account, error) {
	username, err := auth.ValidateToken(token, s.jwtSecret)
	if err != nil {
		s.logger.WithError(err).Debug("Token validation failed")
		return models.Account{}, ErrUnauthenticated
	}

	account, err := s.ledger.FindAccount(ctx, username)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return models.Account{}, ErrUnauthenticated
		}
		return models.Account{}, fmt.Errorf("failed to resolve account: %w", err)
	}
	return account, nil
}
