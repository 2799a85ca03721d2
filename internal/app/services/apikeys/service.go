// Package apikeys issues and verifies the long-lived sk- credentials
// users attach to programmatic requests. Usage counters kept here are
// informational; billing history lives in the call log.
package apikeys

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// SecretPrefix marks platform-issued credentials.
const SecretPrefix = "sk-"

const secretLength = 48

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Service manages API keys.
type Service struct {
	store    storage.APIKeyStore
	accounts storage.AccountStore
	log      *logger.Logger
}

// New constructs an API key service.
func New(store storage.APIKeyStore, accounts storage.AccountStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("apikeys")
	}
	return &Service{store: store, accounts: accounts, log: log}
}

// Create issues a new key for the account. The secret is returned once
// here and retrievable afterwards only by its owner.
func (s *Service) Create(ctx context.Context, accountID, name string) (apikey.Key, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return apikey.Key{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	secret, err := generateSecret()
	if err != nil {
		return apikey.Key{}, errors.Internal("generate api key", err)
	}

	created, err := s.store.CreateAPIKey(ctx, apikey.Key{
		AccountID: accountID,
		Name:      name,
		Secret:    secret,
		Status:    apikey.StatusActive,
	})
	if err != nil {
		return apikey.Key{}, err
	}
	s.log.Infof("api key %s issued for account %s", created.ID, accountID)
	return created, nil
}

// List returns the keys owned by an account. An empty accountID lists
// every key (admin view).
func (s *Service) List(ctx context.Context, accountID string) ([]apikey.Key, error) {
	return s.store.ListAPIKeys(ctx, accountID)
}

// Delete revokes a key. When ownerID is non-empty the key must belong
// to that account.
func (s *Service) Delete(ctx context.Context, ownerID, keyID string) error {
	key, err := s.store.GetAPIKey(ctx, keyID)
	if err != nil {
		return err
	}
	if ownerID != "" && key.AccountID != ownerID {
		return errors.Forbidden("api key belongs to another account")
	}
	if err := s.store.DeleteAPIKey(ctx, keyID); err != nil {
		return err
	}
	s.log.Infof("api key %s revoked", keyID)
	return nil
}

// SetStatus enables or disables a key.
func (s *Service) SetStatus(ctx context.Context, keyID string, status apikey.Status) (apikey.Key, error) {
	if status != apikey.StatusActive && status != apikey.StatusDisabled {
		return apikey.Key{}, errors.InvalidInput("unknown status")
	}
	key, err := s.store.GetAPIKey(ctx, keyID)
	if err != nil {
		return apikey.Key{}, err
	}
	key.Status = status
	return s.store.UpdateAPIKey(ctx, key)
}

// Verify resolves a secret to its key and owning account. Both must be
// active.
func (s *Service) Verify(ctx context.Context, secret string) (apikey.Key, account.Account, error) {
	key, err := s.store.GetAPIKeyBySecret(ctx, secret)
	if err != nil {
		return apikey.Key{}, account.Account{}, errors.Unauthorized("unknown api key")
	}
	if key.Status != apikey.StatusActive {
		return apikey.Key{}, account.Account{}, errors.Unauthorized("api key disabled")
	}
	acct, err := s.accounts.GetAccount(ctx, key.AccountID)
	if err != nil {
		return apikey.Key{}, account.Account{}, errors.Unauthorized("account not found for api key")
	}
	if !acct.Active() {
		return apikey.Key{}, account.Account{}, errors.Unauthorized("account disabled")
	}
	return key, acct, nil
}

// RecordUsage bumps the informational usage counter. Failures are
// logged and swallowed; usage counters never block a request.
func (s *Service) RecordUsage(ctx context.Context, keyID string) {
	key, err := s.store.GetAPIKey(ctx, keyID)
	if err != nil {
		s.log.WithError(err).Warnf("record usage for api key %s", keyID)
		return
	}
	key.UsageCount++
	key.LastUsedAt = time.Now().UTC()
	if _, err := s.store.UpdateAPIKey(ctx, key); err != nil {
		s.log.WithError(err).Warnf("record usage for api key %s", keyID)
	}
}

func generateSecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, secretLength)
	for i, b := range buf {
		out[i] = secretAlphabet[int(b)%len(secretAlphabet)]
	}
	return SecretPrefix + string(out), nil
}
