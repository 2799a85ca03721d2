// Package generation orchestrates one billable image-generation
// transaction: account validation, model and provider resolution, the
// upstream call, the ledger debit and the audit log write. Every
// attempt that reaches the upstream call produces exactly one call-log
// entry, success or failure, and a failed call never costs the account
// anything.
package generation

import (
	"context"
	"strings"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/calllog"
	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/app/metrics"
	ledgersvc "github.com/nekoko-ai/platform/internal/app/services/ledger"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// Config carries the coordinator's policy knobs.
type Config struct {
	// DefaultPricePerCall is charged when a model has no configured
	// price. Zero disables the fallback, making unpriced models free.
	DefaultPricePerCall float64
}

// Request is one generation attempt by an authenticated account.
// ModelID empty means "use the first active model". APIKeyID is set
// when the request authenticated with an sk- credential.
type Request struct {
	AccountID string
	APIKeyID  string
	Prompt    string
	ModelID   string
	Width     int
	Height    int
}

// Result is returned to the caller on success.
type Result struct {
	ImageURL    string
	ImageBase64 string
	Cost        float64
	Balance     float64
	ModelName   string
}

// UsageRecorder receives best-effort API key usage notifications.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, keyID string)
}

// Service coordinates generation transactions.
type Service struct {
	accounts  storage.AccountStore
	catalog   storage.CatalogStore
	logs      storage.CallLogStore
	ledger    *ledgersvc.Service
	generator Generator
	usage     UsageRecorder
	cfg       Config
	log       *logger.Logger
}

// New constructs the coordinator.
func New(accounts storage.AccountStore, catalogStore storage.CatalogStore, logs storage.CallLogStore,
	ledger *ledgersvc.Service, generator Generator, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("generation")
	}
	return &Service{
		accounts:  accounts,
		catalog:   catalogStore,
		logs:      logs,
		ledger:    ledger,
		generator: generator,
		cfg:       cfg,
		log:       log,
	}
}

// AttachUsageRecorder wires the API key usage counter. Optional.
func (s *Service) AttachUsageRecorder(usage UsageRecorder) {
	s.usage = usage
}

// Generate runs one transaction end to end. Validation and
// authorization failures return before the upstream call and write no
// log entry; every attempt that reaches the provider writes exactly
// one entry.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	// Validating.
	acct, err := s.accounts.GetAccount(ctx, req.AccountID)
	if err != nil {
		return Result{}, errors.Unauthorized("account not found")
	}
	if !acct.Active() {
		return Result{}, errors.Unauthorized("account disabled")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Result{}, errors.InvalidInput("prompt is required")
	}

	// Resolving.
	model, err := s.resolveModel(ctx, req.ModelID)
	if err != nil {
		return Result{}, err
	}
	provider, err := s.catalog.GetProvider(ctx, model.ProviderID)
	if err != nil || provider.Status != catalog.StatusActive {
		return Result{}, errors.ProviderUnavailable("provider unavailable")
	}

	width, height, err := resolveSize(model, req.Width, req.Height)
	if err != nil {
		return Result{}, err
	}

	// Authorizing. The balance read here is advisory: it avoids a paid
	// upstream call when funds are already known to be short. The
	// authoritative check is the conditional debit after the call.
	cost := model.PricePerCall
	if cost == 0 && s.cfg.DefaultPricePerCall > 0 {
		cost = s.cfg.DefaultPricePerCall
	}
	if cost > 0 {
		balance, err := s.ledger.Balance(ctx, acct.ID)
		if err != nil {
			return Result{}, err
		}
		if balance < cost {
			return Result{}, errors.InsufficientFunds("balance too low for this model")
		}
	}

	// Calling. The only blocking step; the caller's context deadline
	// bounds it.
	started := time.Now()
	upstream, callErr := s.generator.Generate(ctx, ProviderCall{
		BaseURL: provider.BaseURL,
		APIKey:  provider.APIKey,
		Model:   model.UpstreamID,
		Prompt:  prompt,
		Width:   width,
		Height:  height,
	})
	latency := time.Since(started)

	if callErr != nil {
		s.writeLog(ctx, req, model.ID, prompt, calllog.Entry{
			Status:       calllog.StatusFailed,
			Cost:         0,
			ResponseTime: latency,
			ErrorMessage: callErr.Error(),
		})
		metrics.RecordGeneration("failed", latency)
		return Result{}, errors.UpstreamFailure("image generation failed", callErr)
	}
	if upstream.URL == "" && upstream.Base64 == "" {
		s.writeLog(ctx, req, model.ID, prompt, calllog.Entry{
			Status:       calllog.StatusFailed,
			Cost:         0,
			ResponseTime: latency,
			ErrorMessage: "provider returned no image",
		})
		metrics.RecordGeneration("failed", latency)
		return Result{}, errors.UpstreamFailure("provider returned no image", nil)
	}

	// Settling. The conditional debit is the authoritative funds check;
	// a concurrent transaction may have drained the balance since the
	// advisory read, in which case the upstream call is already paid
	// for and the failure is logged with the computed cost for audit
	// visibility.
	balance := acct.Balance
	if cost > 0 {
		newBalance, debitErr := s.ledger.Debit(ctx, acct.ID, cost)
		if debitErr != nil {
			metrics.RecordDebit("failed")
			s.writeLog(ctx, req, model.ID, prompt, calllog.Entry{
				Status:       calllog.StatusFailed,
				Cost:         cost,
				ResponseTime: latency,
				ErrorMessage: "settlement failed: " + debitErr.Error(),
			})
			metrics.RecordGeneration("failed", latency)
			if errors.IsCode(debitErr, errors.CodeInsufficientFunds) {
				s.log.Warnf("account %s drained between authorization and settlement", acct.ID)
				return Result{}, errors.InsufficientFunds("balance drained before settlement")
			}
			return Result{}, errors.Internal("settle generation charge", debitErr)
		}
		metrics.RecordDebit("ok")
		balance = newBalance
	} else if current, err := s.ledger.Balance(ctx, acct.ID); err == nil {
		balance = current
	}

	s.writeLog(ctx, req, model.ID, prompt, calllog.Entry{
		Status:       calllog.StatusSuccess,
		Cost:         cost,
		ResponseTime: latency,
		ImageURL:     upstream.URL,
	})
	metrics.RecordGeneration("success", latency)

	if s.usage != nil && req.APIKeyID != "" {
		s.usage.RecordUsage(ctx, req.APIKeyID)
	}

	return Result{
		ImageURL:    upstream.URL,
		ImageBase64: upstream.Base64,
		Cost:        cost,
		Balance:     balance,
		ModelName:   model.Name,
	}, nil
}

// resolveModel picks the requested model, or the first active model
// when none is named.
func (s *Service) resolveModel(ctx context.Context, modelID string) (catalog.Model, error) {
	if modelID != "" {
		model, err := s.catalog.GetModel(ctx, modelID)
		if err != nil {
			return catalog.Model{}, errors.ModelNotFound(modelID)
		}
		return model, nil
	}
	models, err := s.catalog.ListActiveModels(ctx)
	if err != nil {
		return catalog.Model{}, err
	}
	if len(models) == 0 {
		return catalog.Model{}, errors.NoModelAvailable()
	}
	return models[0], nil
}

// resolveSize fills unset dimensions from the model defaults and
// enforces its maximums.
func resolveSize(model catalog.Model, width, height int) (int, int, error) {
	if width <= 0 {
		width = model.DefaultWidth
	}
	if height <= 0 {
		height = model.DefaultHeight
	}
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	if model.MaxWidth > 0 && width > model.MaxWidth {
		return 0, 0, errors.InvalidInput("requested width exceeds model maximum")
	}
	if model.MaxHeight > 0 && height > model.MaxHeight {
		return 0, 0, errors.InvalidInput("requested height exceeds model maximum")
	}
	return width, height, nil
}

// writeLog appends the audit entry for one attempt. Log writes must not
// mask the transaction outcome, so failures are reported and dropped.
func (s *Service) writeLog(ctx context.Context, req Request, modelID, prompt string, entry calllog.Entry) {
	entry.AccountID = req.AccountID
	entry.APIKeyID = req.APIKeyID
	entry.ModelID = modelID
	entry.Prompt = prompt
	if _, err := s.logs.CreateCallLog(ctx, entry); err != nil {
		s.log.WithError(err).Error("write generation log entry")
	}
}
