// Package ledger owns account balance mutations. Every charge and
// top-up on the platform goes through this service so the non-negative
// balance invariant has a single enforcement point.
package ledger

import (
	"context"

	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// Epsilon bounds float comparisons on balances.
const Epsilon = 1e-9

// Service is the single writer of account balances.
type Service struct {
	accounts storage.AccountStore
	log      *logger.Logger
}

// New constructs a ledger over the given account store.
func New(accounts storage.AccountStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Service{accounts: accounts, log: log}
}

// Balance returns the current spendable balance for the account.
func (s *Service) Balance(ctx context.Context, accountID string) (float64, error) {
	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Debit subtracts amount from the account's balance and returns the new
// balance. The store applies the check-and-subtract atomically, so two
// concurrent debits against the same account serialize and the balance
// never goes negative. No partial debit is ever applied.
func (s *Service) Debit(ctx context.Context, accountID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, errors.InvalidInput("debit amount must be positive")
	}

	acct, err := s.accounts.DebitBalance(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(map[string]interface{}{
		"account": accountID,
		"amount":  amount,
		"balance": acct.Balance,
	}).Debug("balance debited")
	return acct.Balance, nil
}

// Credit adds amount to the account's balance and returns the new
// balance. It always succeeds for a positive amount on an existing
// account.
func (s *Service) Credit(ctx context.Context, accountID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, errors.InvalidInput("credit amount must be positive")
	}

	acct, err := s.accounts.CreditBalance(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(map[string]interface{}{
		"account": accountID,
		"amount":  amount,
		"balance": acct.Balance,
	}).Info("balance credited")
	return acct.Balance, nil
}
