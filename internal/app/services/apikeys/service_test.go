package apikeys

import (
	"context"
	"strings"
	"testing"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/storage/memory"
	"github.com/nekoko-ai/platform/internal/errors"
)

func newTestService(t *testing.T) (*Service, *memory.Store, account.Account) {
	t.Helper()
	store := memory.New()
	acct, err := store.CreateAccount(context.Background(), account.Account{
		Username:     "alice",
		PasswordHash: "x",
		Role:         account.RoleUser,
		Status:       account.StatusActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return New(store, store, nil), store, acct
}

func TestCreateIssuesPrefixedSecret(t *testing.T) {
	svc, _, acct := newTestService(t)

	key, err := svc.Create(context.Background(), acct.ID, "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(key.Secret, SecretPrefix) {
		t.Fatalf("secret must carry the %s prefix, got %q", SecretPrefix, key.Secret)
	}
	if len(key.Secret) != len(SecretPrefix)+secretLength {
		t.Fatalf("unexpected secret length %d", len(key.Secret))
	}
	if key.Name != "ci" || key.Status != apikey.StatusActive {
		t.Fatalf("unexpected key %+v", key)
	}
}

func TestCreateDefaultsName(t *testing.T) {
	svc, _, acct := newTestService(t)

	key, err := svc.Create(context.Background(), acct.ID, "  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if key.Name != "default" {
		t.Fatalf("expected default name, got %q", key.Name)
	}
}

func TestVerify(t *testing.T) {
	svc, _, acct := newTestService(t)

	key, err := svc.Create(context.Background(), acct.ID, "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	gotKey, gotAcct, err := svc.Verify(context.Background(), key.Secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if gotKey.ID != key.ID || gotAcct.ID != acct.ID {
		t.Fatalf("verify resolved wrong records: key=%s acct=%s", gotKey.ID, gotAcct.ID)
	}

	if _, _, err := svc.Verify(context.Background(), "sk-unknown"); !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown secret, got %v", err)
	}
}

func TestVerifyDisabledKey(t *testing.T) {
	svc, _, acct := newTestService(t)

	key, err := svc.Create(context.Background(), acct.ID, "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), key.ID, apikey.StatusDisabled); err != nil {
		t.Fatalf("disable: %v", err)
	}

	if _, _, err := svc.Verify(context.Background(), key.Secret); !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for disabled key, got %v", err)
	}
}

func TestVerifyDisabledAccount(t *testing.T) {
	svc, store, acct := newTestService(t)

	key, err := svc.Create(context.Background(), acct.ID, "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	acct.Status = account.StatusDisabled
	if _, err := store.UpdateAccount(context.Background(), acct); err != nil {
		t.Fatalf("disable account: %v", err)
	}

	if _, _, err := svc.Verify(context.Background(), key.Secret); !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for disabled owner, got %v", err)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	svc, store, acct := newTestService(t)

	other, err := store.CreateAccount(context.Background(), account.Account{
		Username:     "bob",
		PasswordHash: "x",
		Role:         account.RoleUser,
		Status:       account.StatusActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	key, err := svc.Create(context.Background(), acct.ID, "ci")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	if err := svc.Delete(context.Background(), other.ID, key.ID); !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign key, got %v", err)
	}

	// Admin deletion passes an empty owner.
	if err := svc.Delete(context.Background(), "", key.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, _, err := svc.Verify(context.Background(), key.Secret); err == nil {
		t.Fatal("deleted key must not verify")
	}
}

func TestRecordUsage(t *testing.T) {
	svc, store, acct := newTestService(t)

	key, err := svc.Create(context.Background(), acct.ID, "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.RecordUsage(context.Background(), key.ID)
	svc.RecordUsage(context.Background(), key.ID)

	stored, err := store.GetAPIKey(context.Background(), key.ID)
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if stored.UsageCount != 2 {
		t.Fatalf("expected usage count 2, got %d", stored.UsageCount)
	}
	if stored.LastUsedAt.IsZero() {
		t.Fatal("expected last used timestamp")
	}

	// Unknown keys are logged and ignored.
	svc.RecordUsage(context.Background(), "missing")
}
