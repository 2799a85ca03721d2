package memory

import (
	"context"
	"testing"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/domain/calllog"
	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/errors"
)

func apikeyFixture(accountID, secret string) apikey.Key {
	return apikey.Key{
		AccountID: accountID,
		Name:      "default",
		Secret:    secret,
		Status:    apikey.StatusActive,
	}
}

func dayStart() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func seedAccount(t *testing.T, store *Store, username string, balance float64) account.Account {
	t.Helper()
	acct, err := store.CreateAccount(context.Background(), account.Account{
		Username:     username,
		PasswordHash: "x",
		Balance:      balance,
		Role:         account.RoleUser,
		Status:       account.StatusActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acct
}

func TestUpdateAccountPreservesBalance(t *testing.T) {
	store := New()
	acct := seedAccount(t, store, "alice", 7)

	acct.Email = "alice@example.com"
	acct.Balance = 9999
	updated, err := store.UpdateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Balance != 7 {
		t.Fatalf("UpdateAccount must ignore the balance field, got %v", updated.Balance)
	}
}

func TestUsernameUniquenessIsCaseInsensitive(t *testing.T) {
	store := New()
	seedAccount(t, store, "Alice", 0)

	_, err := store.CreateAccount(context.Background(), account.Account{
		Username: "alice", PasswordHash: "x", Role: account.RoleUser, Status: account.StatusActive,
	})
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := store.GetAccountByUsername(context.Background(), "ALICE"); err != nil {
		t.Fatalf("lookup must be case-insensitive: %v", err)
	}
}

func TestDebitBalanceConditional(t *testing.T) {
	store := New()
	acct := seedAccount(t, store, "alice", 1)

	if _, err := store.DebitBalance(context.Background(), acct.ID, 2); !errors.IsCode(err, errors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	updated, err := store.DebitBalance(context.Background(), acct.ID, 1)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if updated.Balance != 0 {
		t.Fatalf("expected zero balance, got %v", updated.Balance)
	}
}

func TestDeleteProviderStillReferenced(t *testing.T) {
	store := New()
	ctx := context.Background()

	provider, err := store.CreateProvider(ctx, catalog.Provider{Name: "p", BaseURL: "http://p", Status: catalog.StatusActive})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	if _, err := store.CreateModel(ctx, catalog.Model{
		Name: "m", UpstreamID: "m-1", ProviderID: provider.ID,
		Type: catalog.TypeTextToImage, Status: catalog.StatusActive,
	}); err != nil {
		t.Fatalf("create model: %v", err)
	}

	if err := store.DeleteProvider(ctx, provider.ID); !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict while referenced, got %v", err)
	}
}

func TestListActiveModelsKeepsCreationOrder(t *testing.T) {
	store := New()
	ctx := context.Background()

	provider, err := store.CreateProvider(ctx, catalog.Provider{Name: "p", BaseURL: "http://p", Status: catalog.StatusActive})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	names := []string{"first", "second", "third"}
	for _, name := range names {
		status := catalog.StatusActive
		if name == "second" {
			status = catalog.StatusDisabled
		}
		if _, err := store.CreateModel(ctx, catalog.Model{
			Name: name, UpstreamID: name, ProviderID: provider.ID,
			Type: catalog.TypeTextToImage, Status: status,
		}); err != nil {
			t.Fatalf("create model %s: %v", name, err)
		}
	}

	active, err := store.ListActiveModels(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 || active[0].Name != "first" || active[1].Name != "third" {
		t.Fatalf("expected [first third], got %+v", active)
	}
}

func TestUpdateAPIKeyPreservesSecret(t *testing.T) {
	store := New()
	acct := seedAccount(t, store, "alice", 0)

	key, err := store.CreateAPIKey(context.Background(), apikeyFixture(acct.ID, "sk-original"))
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	key.Secret = "sk-tampered"
	updated, err := store.UpdateAPIKey(context.Background(), key)
	if err != nil {
		t.Fatalf("update key: %v", err)
	}
	if updated.Secret != "sk-original" {
		t.Fatalf("secret must be immutable, got %q", updated.Secret)
	}
}

func TestListCallLogsNewestFirstWithLimit(t *testing.T) {
	store := New()
	ctx := context.Background()
	acct := seedAccount(t, store, "alice", 0)
	other := seedAccount(t, store, "bob", 0)

	for _, prompt := range []string{"one", "two", "three"} {
		if _, err := store.CreateCallLog(ctx, calllog.Entry{
			AccountID: acct.ID, Prompt: prompt, Status: calllog.StatusSuccess, Cost: 0.5,
		}); err != nil {
			t.Fatalf("create log: %v", err)
		}
	}
	if _, err := store.CreateCallLog(ctx, calllog.Entry{
		AccountID: other.ID, Prompt: "noise", Status: calllog.StatusFailed,
	}); err != nil {
		t.Fatalf("create log: %v", err)
	}

	entries, err := store.ListCallLogs(ctx, acct.ID, 2)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(entries) != 2 || entries[0].Prompt != "three" || entries[1].Prompt != "two" {
		t.Fatalf("expected newest two entries for the account, got %+v", entries)
	}
}

func TestCallLogStats(t *testing.T) {
	store := New()
	ctx := context.Background()
	acct := seedAccount(t, store, "alice", 0)

	for i, status := range []calllog.Status{calllog.StatusSuccess, calllog.StatusSuccess, calllog.StatusFailed} {
		cost := 0.5
		if status == calllog.StatusFailed {
			cost = 0
		}
		if _, err := store.CreateCallLog(ctx, calllog.Entry{
			AccountID: acct.ID, Prompt: "p", Status: status, Cost: cost,
		}); err != nil {
			t.Fatalf("create log %d: %v", i, err)
		}
	}

	stats, err := store.CallLogStats(ctx, dayStart())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalCalls != 3 || stats.TodayCalls != 3 {
		t.Fatalf("expected 3 calls, got %+v", stats)
	}
	if stats.TotalRevenue != 1.0 {
		t.Fatalf("expected revenue 1.0, got %v", stats.TotalRevenue)
	}
	if stats.SuccessRate < 66 || stats.SuccessRate > 67 {
		t.Fatalf("expected ~66.7%% success, got %v", stats.SuccessRate)
	}
	if stats.TotalAccounts != 1 {
		t.Fatalf("expected one account, got %d", stats.TotalAccounts)
	}
}

func TestUpdateSettingsKeepsAdminHashWhenEmpty(t *testing.T) {
	store := New()
	ctx := context.Background()

	cfg, _ := store.GetSettings(ctx)
	cfg.AdminPasswordHash = "hash-1"
	if _, err := store.UpdateSettings(ctx, cfg); err != nil {
		t.Fatalf("update: %v", err)
	}

	cfg.AdminPasswordHash = ""
	cfg.SiteName = "renamed"
	updated, err := store.UpdateSettings(ctx, cfg)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AdminPasswordHash != "hash-1" {
		t.Fatalf("empty hash must keep the stored one, got %q", updated.AdminPasswordHash)
	}
	if updated.SiteName != "renamed" {
		t.Fatalf("expected renamed site, got %q", updated.SiteName)
	}
}
