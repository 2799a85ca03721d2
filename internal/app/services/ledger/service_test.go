package ledger

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/storage/memory"
	"github.com/nekoko-ai/platform/internal/errors"
)

func newTestLedger(t *testing.T, balance float64) (*Service, string) {
	t.Helper()
	store := memory.New()
	acct, err := store.CreateAccount(context.Background(), account.Account{
		Username:     "alice",
		PasswordHash: "x",
		Balance:      balance,
		Role:         account.RoleUser,
		Status:       account.StatusActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return New(store, nil), acct.ID
}

func TestDebitReducesBalance(t *testing.T) {
	svc, id := newTestLedger(t, 10)

	balance, err := svc.Debit(context.Background(), id, 0.5)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if math.Abs(balance-9.5) > Epsilon {
		t.Fatalf("expected balance 9.5, got %v", balance)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	svc, id := newTestLedger(t, 0.4)

	if _, err := svc.Debit(context.Background(), id, 0.5); !errors.IsCode(err, errors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, err := svc.Balance(context.Background(), id)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if math.Abs(balance-0.4) > Epsilon {
		t.Fatalf("failed debit must not change the balance, got %v", balance)
	}
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	svc, id := newTestLedger(t, 10)

	for _, amount := range []float64{0, -1} {
		if _, err := svc.Debit(context.Background(), id, amount); !errors.IsCode(err, errors.CodeInvalidInput) {
			t.Fatalf("amount %v: expected invalid input, got %v", amount, err)
		}
	}
}

func TestCreditIncreasesBalance(t *testing.T) {
	svc, id := newTestLedger(t, 1)

	balance, err := svc.Credit(context.Background(), id, 4)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if math.Abs(balance-5) > Epsilon {
		t.Fatalf("expected balance 5, got %v", balance)
	}
}

func TestDebitUnknownAccount(t *testing.T) {
	svc, _ := newTestLedger(t, 10)

	if _, err := svc.Debit(context.Background(), "missing", 1); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Concurrent debits against one account must admit exactly
// floor(balance/charge) of them and never drive the balance negative.
func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	const (
		start    = 10.0
		charge   = 0.5
		attempts = 40
	)
	svc, id := newTestLedger(t, start)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Debit(context.Background(), id, charge); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 20 {
		t.Fatalf("expected exactly 20 debits to succeed, got %d", succeeded)
	}
	balance, err := svc.Balance(context.Background(), id)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if math.Abs(balance) > Epsilon {
		t.Fatalf("expected drained balance, got %v", balance)
	}
}
