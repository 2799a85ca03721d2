package storage

import (
	"context"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/domain/calllog"
	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/app/domain/settings"
)

// AccountStore persists billing accounts. Balance mutations go through
// the conditional DebitBalance/CreditBalance operations only; plain
// UpdateAccount ignores the Balance field.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	GetAccount(ctx context.Context, id string) (account.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)
	ListAccounts(ctx context.Context) ([]account.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// DebitBalance atomically subtracts amount from the account's balance
	// when the current balance covers it, and returns the updated record.
	// It fails with a typed InsufficientFunds error otherwise; the balance
	// is never driven negative regardless of concurrent callers.
	DebitBalance(ctx context.Context, id string, amount float64) (account.Account, error)

	// CreditBalance atomically adds amount to the account's balance.
	CreditBalance(ctx context.Context, id string, amount float64) (account.Account, error)
}

// CatalogStore persists providers and models.
type CatalogStore interface {
	CreateProvider(ctx context.Context, p catalog.Provider) (catalog.Provider, error)
	UpdateProvider(ctx context.Context, p catalog.Provider) (catalog.Provider, error)
	GetProvider(ctx context.Context, id string) (catalog.Provider, error)
	ListProviders(ctx context.Context) ([]catalog.Provider, error)
	DeleteProvider(ctx context.Context, id string) error

	CreateModel(ctx context.Context, m catalog.Model) (catalog.Model, error)
	UpdateModel(ctx context.Context, m catalog.Model) (catalog.Model, error)
	GetModel(ctx context.Context, id string) (catalog.Model, error)
	ListModels(ctx context.Context) ([]catalog.Model, error)
	// ListActiveModels returns active models in creation order; the first
	// entry is the default model when a request names none.
	ListActiveModels(ctx context.Context) ([]catalog.Model, error)
	DeleteModel(ctx context.Context, id string) error
}

// APIKeyStore persists account credentials.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key apikey.Key) (apikey.Key, error)
	UpdateAPIKey(ctx context.Context, key apikey.Key) (apikey.Key, error)
	GetAPIKey(ctx context.Context, id string) (apikey.Key, error)
	GetAPIKeyBySecret(ctx context.Context, secret string) (apikey.Key, error)
	ListAPIKeys(ctx context.Context, accountID string) ([]apikey.Key, error)
	DeleteAPIKey(ctx context.Context, id string) error
}

// CallLogStore persists the append-only generation audit log.
type CallLogStore interface {
	CreateCallLog(ctx context.Context, entry calllog.Entry) (calllog.Entry, error)
	// ListCallLogs returns entries newest first, optionally filtered by
	// account and truncated to limit (0 means no limit).
	ListCallLogs(ctx context.Context, accountID string, limit int) ([]calllog.Entry, error)
	// CallLogStats aggregates cost and volume; entries at or after since
	// count toward the "today" figures.
	CallLogStats(ctx context.Context, since time.Time) (calllog.Stats, error)
}

// SettingsStore persists the admin-editable platform settings.
type SettingsStore interface {
	GetSettings(ctx context.Context) (settings.Settings, error)
	UpdateSettings(ctx context.Context, s settings.Settings) (settings.Settings, error)
}
