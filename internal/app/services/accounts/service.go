// Package accounts manages user identities: registration, password
// authentication and the administrative edits. Balances are owned by
// the ledger; this service never touches them beyond the initial grant.
package accounts

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// Service manages user accounts.
type Service struct {
	store    storage.AccountStore
	settings storage.SettingsStore
	log      *logger.Logger
}

// New constructs an accounts service.
func New(store storage.AccountStore, settingsStore storage.SettingsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	return &Service{store: store, settings: settingsStore, log: log}
}

// Register creates a self-service account with the configured starting
// balance. It fails when registration is disabled in settings or the
// username/email is already taken.
func (s *Service) Register(ctx context.Context, username, email, password string) (account.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return account.Account{}, errors.InvalidInput("username, email and password are required")
	}

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return account.Account{}, err
	}
	if !cfg.AllowRegistration {
		return account.Account{}, errors.Forbidden("registration is currently closed")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return account.Account{}, errors.Internal("hash password", err)
	}

	created, err := s.store.CreateAccount(ctx, account.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Balance:      cfg.DefaultUserBalance,
		Role:         account.RoleUser,
		Status:       account.StatusActive,
	})
	if err != nil {
		return account.Account{}, err
	}
	s.log.Infof("account %s registered", created.ID)
	return created, nil
}

// Authenticate verifies a username/password pair against an active
// account. The same Unauthorized error is returned for a missing user
// and a wrong password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (account.Account, error) {
	acct, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		return account.Account{}, errors.Unauthorized("invalid username or password")
	}
	if !acct.Active() {
		return account.Account{}, errors.Unauthorized("account disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return account.Account{}, errors.Unauthorized("invalid username or password")
	}
	return acct, nil
}

// Create registers an account on behalf of an administrator.
func (s *Service) Create(ctx context.Context, username, email, password string, balance float64, role account.Role) (account.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return account.Account{}, errors.InvalidInput("username and password are required")
	}
	if role == "" {
		role = account.RoleUser
	}
	if role != account.RoleUser && role != account.RoleAdmin {
		return account.Account{}, errors.InvalidInput("unknown role")
	}
	if balance < 0 {
		return account.Account{}, errors.InvalidInput("balance must not be negative")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return account.Account{}, errors.Internal("hash password", err)
	}

	created, err := s.store.CreateAccount(ctx, account.Account{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Balance:      balance,
		Role:         role,
		Status:       account.StatusActive,
	})
	if err != nil {
		return account.Account{}, err
	}
	s.log.Infof("account %s created", created.ID)
	return created, nil
}

// Update overwrites mutable account fields. An empty password leaves
// the current hash in place; the balance is never updated here.
func (s *Service) Update(ctx context.Context, id string, email, password *string, role *account.Role, status *account.Status) (account.Account, error) {
	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return account.Account{}, err
	}

	if email != nil && strings.TrimSpace(*email) != "" {
		acct.Email = strings.TrimSpace(*email)
	}
	if password != nil && *password != "" {
		hash, err := HashPassword(*password)
		if err != nil {
			return account.Account{}, errors.Internal("hash password", err)
		}
		acct.PasswordHash = hash
	}
	if role != nil {
		if *role != account.RoleUser && *role != account.RoleAdmin {
			return account.Account{}, errors.InvalidInput("unknown role")
		}
		acct.Role = *role
	}
	if status != nil {
		if *status != account.StatusActive && *status != account.StatusDisabled {
			return account.Account{}, errors.InvalidInput("unknown status")
		}
		acct.Status = *status
	}

	updated, err := s.store.UpdateAccount(ctx, acct)
	if err != nil {
		return account.Account{}, err
	}
	s.log.Infof("account %s updated", id)
	return updated, nil
}

// Get retrieves an account by identifier.
func (s *Service) Get(ctx context.Context, id string) (account.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]account.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.log.Infof("account %s deleted", id)
	return nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
