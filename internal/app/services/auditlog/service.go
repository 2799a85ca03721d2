// Package auditlog exposes the append-only generation log: per-account
// history for users, the full log and aggregate statistics for the
// admin console.
package auditlog

import (
	"context"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/calllog"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// DefaultListLimit bounds unqualified log listings.
const DefaultListLimit = 100

// Service reads the call log.
type Service struct {
	store storage.CallLogStore
	log   *logger.Logger
}

// New constructs an audit log service.
func New(store storage.CallLogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auditlog")
	}
	return &Service{store: store, log: log}
}

// ListForAccount returns an account's entries, newest first.
func (s *Service) ListForAccount(ctx context.Context, accountID string, limit int) ([]calllog.Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.ListCallLogs(ctx, accountID, limit)
}

// ListAll returns entries across all accounts, newest first.
func (s *Service) ListAll(ctx context.Context, limit int) ([]calllog.Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.ListCallLogs(ctx, "", limit)
}

// Stats aggregates the log for the admin dashboard. "Today" figures
// start at local midnight.
func (s *Service) Stats(ctx context.Context) (calllog.Stats, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.store.CallLogStats(ctx, midnight)
}
