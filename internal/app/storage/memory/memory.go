package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/domain/calllog"
	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/app/domain/settings"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
)

// Store is an in-memory implementation of the storage interfaces. It is
// safe for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu                 sync.RWMutex
	nextID             int64
	accounts           map[string]account.Account
	accountsByUsername map[string]string
	accountsByEmail    map[string]string
	providers          map[string]catalog.Provider
	models             map[string]catalog.Model
	modelOrder         []string
	apiKeys            map[string]apikey.Key
	apiKeysBySecret    map[string]string
	callLogs           []calllog.Entry
	settings           settings.Settings
}

var _ storage.AccountStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)
var _ storage.APIKeyStore = (*Store)(nil)
var _ storage.CallLogStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)

// New creates an empty store seeded with default settings.
func New() *Store {
	return &Store{
		nextID:             1,
		accounts:           make(map[string]account.Account),
		accountsByUsername: make(map[string]string),
		accountsByEmail:    make(map[string]string),
		providers:          make(map[string]catalog.Provider),
		models:             make(map[string]catalog.Model),
		apiKeys:            make(map[string]apikey.Key),
		apiKeysBySecret:    make(map[string]string),
		settings:           settings.Defaults(),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// AccountStore implementation -------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.ID == "" {
		acct.ID = s.nextIDLocked()
	} else if _, exists := s.accounts[acct.ID]; exists {
		return account.Account{}, errors.Conflict(fmt.Sprintf("account %s already exists", acct.ID))
	}

	usernameKey := strings.ToLower(strings.TrimSpace(acct.Username))
	emailKey := strings.ToLower(strings.TrimSpace(acct.Email))
	if usernameKey != "" {
		if _, exists := s.accountsByUsername[usernameKey]; exists {
			return account.Account{}, errors.Conflict(fmt.Sprintf("username %s already taken", acct.Username))
		}
	}
	if emailKey != "" {
		if _, exists := s.accountsByEmail[emailKey]; exists {
			return account.Account{}, errors.Conflict(fmt.Sprintf("email %s already registered", acct.Email))
		}
	}

	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	s.accounts[acct.ID] = acct
	if usernameKey != "" {
		s.accountsByUsername[usernameKey] = acct.ID
	}
	if emailKey != "" {
		s.accountsByEmail[emailKey] = acct.ID
	}
	return acct, nil
}

func (s *Store) UpdateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.accounts[acct.ID]
	if !ok {
		return account.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", acct.ID))
	}

	usernameKey := strings.ToLower(strings.TrimSpace(acct.Username))
	oldUsernameKey := strings.ToLower(strings.TrimSpace(original.Username))
	if usernameKey != oldUsernameKey {
		if existing, exists := s.accountsByUsername[usernameKey]; exists && existing != acct.ID {
			return account.Account{}, errors.Conflict(fmt.Sprintf("username %s already taken", acct.Username))
		}
	}
	emailKey := strings.ToLower(strings.TrimSpace(acct.Email))
	oldEmailKey := strings.ToLower(strings.TrimSpace(original.Email))
	if emailKey != oldEmailKey {
		if existing, exists := s.accountsByEmail[emailKey]; exists && existing != acct.ID {
			return account.Account{}, errors.Conflict(fmt.Sprintf("email %s already registered", acct.Email))
		}
	}

	// Balance moves only through DebitBalance/CreditBalance.
	acct.Balance = original.Balance
	acct.CreatedAt = original.CreatedAt
	acct.UpdatedAt = time.Now().UTC()

	s.accounts[acct.ID] = acct
	if oldUsernameKey != usernameKey {
		delete(s.accountsByUsername, oldUsernameKey)
		if usernameKey != "" {
			s.accountsByUsername[usernameKey] = acct.ID
		}
	}
	if oldEmailKey != emailKey {
		delete(s.accountsByEmail, oldEmailKey)
		if emailKey != "" {
			s.accountsByEmail[emailKey] = acct.ID
		}
	}
	return acct, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	return acct, nil
}

func (s *Store) GetAccountByUsername(_ context.Context, username string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.accountsByUsername[strings.ToLower(strings.TrimSpace(username))]; ok {
		return s.accounts[id], nil
	}
	return account.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", username))
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.accountsByEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		return s.accounts[id], nil
	}
	return account.Account{}, errors.NotFound(fmt.Sprintf("account for %s not found", email))
}

func (s *Store) ListAccounts(_ context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]account.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		result = append(result, acct)
	}
	return result, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	delete(s.accounts, id)
	delete(s.accountsByUsername, strings.ToLower(strings.TrimSpace(acct.Username)))
	delete(s.accountsByEmail, strings.ToLower(strings.TrimSpace(acct.Email)))
	return nil
}

func (s *Store) DebitBalance(_ context.Context, id string, amount float64) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	if acct.Balance < amount {
		return account.Account{}, errors.InsufficientFunds(
			fmt.Sprintf("balance %.4f below charge %.4f", acct.Balance, amount))
	}

	acct.Balance -= amount
	acct.UpdatedAt = time.Now().UTC()
	s.accounts[id] = acct
	return acct, nil
}

func (s *Store) CreditBalance(_ context.Context, id string, amount float64) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", id))
	}

	acct.Balance += amount
	acct.UpdatedAt = time.Now().UTC()
	s.accounts[id] = acct
	return acct, nil
}

// CatalogStore implementation -------------------------------------------------

func (s *Store) CreateProvider(_ context.Context, p catalog.Provider) (catalog.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.providers[p.ID]; exists {
		return catalog.Provider{}, errors.Conflict(fmt.Sprintf("provider %s already exists", p.ID))
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.providers[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProvider(_ context.Context, p catalog.Provider) (catalog.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.providers[p.ID]
	if !ok {
		return catalog.Provider{}, errors.NotFound(fmt.Sprintf("provider %s not found", p.ID))
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.providers[p.ID] = p
	return p, nil
}

func (s *Store) GetProvider(_ context.Context, id string) (catalog.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return catalog.Provider{}, errors.NotFound(fmt.Sprintf("provider %s not found", id))
	}
	return p, nil
}

func (s *Store) ListProviders(_ context.Context) ([]catalog.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) DeleteProvider(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[id]; !ok {
		return errors.NotFound(fmt.Sprintf("provider %s not found", id))
	}
	for _, m := range s.models {
		if m.ProviderID == id {
			return errors.Conflict(fmt.Sprintf("provider %s still referenced by model %s", id, m.ID))
		}
	}
	delete(s.providers, id)
	return nil
}

func (s *Store) CreateModel(_ context.Context, m catalog.Model) (catalog.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = s.nextIDLocked()
	} else if _, exists := s.models[m.ID]; exists {
		return catalog.Model{}, errors.Conflict(fmt.Sprintf("model %s already exists", m.ID))
	}
	if _, ok := s.providers[m.ProviderID]; !ok {
		return catalog.Model{}, errors.NotFound(fmt.Sprintf("provider %s not found", m.ProviderID))
	}

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	s.models[m.ID] = m
	s.modelOrder = append(s.modelOrder, m.ID)
	return m, nil
}

func (s *Store) UpdateModel(_ context.Context, m catalog.Model) (catalog.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.models[m.ID]
	if !ok {
		return catalog.Model{}, errors.NotFound(fmt.Sprintf("model %s not found", m.ID))
	}
	if _, ok := s.providers[m.ProviderID]; !ok {
		return catalog.Model{}, errors.NotFound(fmt.Sprintf("provider %s not found", m.ProviderID))
	}

	m.CreatedAt = original.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	s.models[m.ID] = m
	return m, nil
}

func (s *Store) GetModel(_ context.Context, id string) (catalog.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[id]
	if !ok {
		return catalog.Model{}, errors.NotFound(fmt.Sprintf("model %s not found", id))
	}
	return m, nil
}

func (s *Store) ListModels(_ context.Context) ([]catalog.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Model, 0, len(s.modelOrder))
	for _, id := range s.modelOrder {
		if m, ok := s.models[id]; ok {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Store) ListActiveModels(_ context.Context) ([]catalog.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Model, 0)
	for _, id := range s.modelOrder {
		if m, ok := s.models[id]; ok && m.Status == catalog.StatusActive {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Store) DeleteModel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return errors.NotFound(fmt.Sprintf("model %s not found", id))
	}
	delete(s.models, id)
	for i, existing := range s.modelOrder {
		if existing == id {
			s.modelOrder = append(s.modelOrder[:i], s.modelOrder[i+1:]...)
			break
		}
	}
	return nil
}

// APIKeyStore implementation --------------------------------------------------

func (s *Store) CreateAPIKey(_ context.Context, key apikey.Key) (apikey.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key.ID == "" {
		key.ID = s.nextIDLocked()
	} else if _, exists := s.apiKeys[key.ID]; exists {
		return apikey.Key{}, errors.Conflict(fmt.Sprintf("api key %s already exists", key.ID))
	}
	if _, exists := s.apiKeysBySecret[key.Secret]; exists {
		return apikey.Key{}, errors.Conflict("api key secret already in use")
	}

	now := time.Now().UTC()
	key.CreatedAt = now
	key.UpdatedAt = now

	s.apiKeys[key.ID] = key
	s.apiKeysBySecret[key.Secret] = key.ID
	return key, nil
}

func (s *Store) UpdateAPIKey(_ context.Context, key apikey.Key) (apikey.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.apiKeys[key.ID]
	if !ok {
		return apikey.Key{}, errors.NotFound(fmt.Sprintf("api key %s not found", key.ID))
	}

	key.Secret = original.Secret
	key.CreatedAt = original.CreatedAt
	key.UpdatedAt = time.Now().UTC()
	s.apiKeys[key.ID] = key
	return key, nil
}

func (s *Store) GetAPIKey(_ context.Context, id string) (apikey.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.apiKeys[id]
	if !ok {
		return apikey.Key{}, errors.NotFound(fmt.Sprintf("api key %s not found", id))
	}
	return key, nil
}

func (s *Store) GetAPIKeyBySecret(_ context.Context, secret string) (apikey.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.apiKeysBySecret[secret]; ok {
		return s.apiKeys[id], nil
	}
	return apikey.Key{}, errors.NotFound("api key not found")
}

func (s *Store) ListAPIKeys(_ context.Context, accountID string) ([]apikey.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]apikey.Key, 0)
	for _, key := range s.apiKeys {
		if accountID == "" || key.AccountID == accountID {
			result = append(result, key)
		}
	}
	return result, nil
}

func (s *Store) DeleteAPIKey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.apiKeys[id]
	if !ok {
		return errors.NotFound(fmt.Sprintf("api key %s not found", id))
	}
	delete(s.apiKeys, id)
	delete(s.apiKeysBySecret, key.Secret)
	return nil
}

// CallLogStore implementation -------------------------------------------------

func (s *Store) CreateCallLog(_ context.Context, entry calllog.Entry) (calllog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = s.nextIDLocked()
	}
	entry.CreatedAt = time.Now().UTC()

	s.callLogs = append(s.callLogs, entry)
	return entry, nil
}

func (s *Store) ListCallLogs(_ context.Context, accountID string, limit int) ([]calllog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]calllog.Entry, 0)
	for i := len(s.callLogs) - 1; i >= 0; i-- {
		entry := s.callLogs[i]
		if accountID != "" && entry.AccountID != accountID {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CallLogStats(_ context.Context, since time.Time) (calllog.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := calllog.Stats{
		TotalAccounts:  len(s.accounts),
		TotalProviders: len(s.providers),
		TotalModels:    len(s.models),
		TotalCalls:     len(s.callLogs),
	}
	succeeded := 0
	for _, entry := range s.callLogs {
		stats.TotalRevenue += entry.Cost
		if entry.Status == calllog.StatusSuccess {
			succeeded++
		}
		if !entry.CreatedAt.Before(since) {
			stats.TodayCalls++
			stats.TodayRevenue += entry.Cost
		}
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(succeeded) / float64(stats.TotalCalls) * 100
	}
	return stats, nil
}

// SettingsStore implementation ------------------------------------------------

func (s *Store) GetSettings(_ context.Context) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, updated settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if updated.AdminPasswordHash == "" {
		updated.AdminPasswordHash = s.settings.AdminPasswordHash
	}
	s.settings = updated
	return s.settings, nil
}
