// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/domain/calllog"
	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/app/domain/settings"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.AccountStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)
var _ storage.APIKeyStore = (*Store)(nil)
var _ storage.CallLogStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

// mapError converts driver errors into the shared taxonomy.
func mapError(err error, notFound string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(notFound)
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Conflict("record already exists")
	}
	return err
}

// --- AccountStore -----------------------------------------------------------

type accountRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Balance      float64   `db:"balance"`
	Role         string    `db:"role"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r accountRow) toDomain() account.Account {
	return account.Account{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Balance:      r.Balance,
		Role:         account.Role(r.Role),
		Status:       account.Status(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const accountColumns = `id, username, email, password_hash, balance, role, status, created_at, updated_at`

func (s *Store) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, balance, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, acct.ID, acct.Username, acct.Email, acct.PasswordHash, acct.Balance,
		string(acct.Role), string(acct.Status), acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return account.Account{}, mapError(err, "account not found")
	}
	return acct, nil
}

// UpdateAccount overwrites identity fields. The balance column is owned
// by DebitBalance/CreditBalance and left untouched here.
func (s *Store) UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE accounts
		SET username = $2, email = $3, password_hash = $4, role = $5, status = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+accountColumns+`
	`, acct.ID, acct.Username, acct.Email, acct.PasswordHash,
		string(acct.Role), string(acct.Status), time.Now().UTC())
	if err != nil {
		return account.Account{}, mapError(err, fmt.Sprintf("account %s not found", acct.ID))
	}
	return row.toDomain(), nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1
	`, id)
	if err != nil {
		return account.Account{}, mapError(err, fmt.Sprintf("account %s not found", id))
	}
	return row.toDomain(), nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (account.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+` FROM accounts WHERE LOWER(username) = LOWER($1)
	`, username)
	if err != nil {
		return account.Account{}, mapError(err, fmt.Sprintf("account %s not found", username))
	}
	return row.toDomain(), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)
	`, email)
	if err != nil {
		return account.Account{}, mapError(err, fmt.Sprintf("account for %s not found", email))
	}
	return row.toDomain(), nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]account.Account, error) {
	var rows []accountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+accountColumns+` FROM accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	result := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	return nil
}

// DebitBalance relies on a conditional UPDATE so the check and the
// subtraction are one atomic statement; concurrent debits serialize on
// the row lock and the balance never goes negative.
func (s *Store) DebitBalance(ctx context.Context, id string, amount float64) (account.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE accounts
		SET balance = balance - $2, updated_at = $3
		WHERE id = $1 AND balance >= $2
		RETURNING `+accountColumns+`
	`, id, amount, time.Now().UTC())
	if err == nil {
		return row.toDomain(), nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return account.Account{}, err
	}

	// No row updated: either the account is missing or the balance is
	// short. Disambiguate for the caller.
	acct, getErr := s.GetAccount(ctx, id)
	if getErr != nil {
		return account.Account{}, getErr
	}
	return account.Account{}, errors.InsufficientFunds(
		fmt.Sprintf("balance %.4f below charge %.4f", acct.Balance, amount))
}

func (s *Store) CreditBalance(ctx context.Context, id string, amount float64) (account.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE accounts
		SET balance = balance + $2, updated_at = $3
		WHERE id = $1
		RETURNING `+accountColumns+`
	`, id, amount, time.Now().UTC())
	if err != nil {
		return account.Account{}, mapError(err, fmt.Sprintf("account %s not found", id))
	}
	return row.toDomain(), nil
}

// --- CatalogStore -----------------------------------------------------------

type providerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	BaseURL   string    `db:"base_url"`
	APIKey    string    `db:"api_key"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r providerRow) toDomain() catalog.Provider {
	return catalog.Provider{
		ID:        r.ID,
		Name:      r.Name,
		BaseURL:   r.BaseURL,
		APIKey:    r.APIKey,
		Status:    catalog.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const providerColumns = `id, name, base_url, api_key, status, created_at, updated_at`

func (s *Store) CreateProvider(ctx context.Context, p catalog.Provider) (catalog.Provider, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO providers (id, name, base_url, api_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.BaseURL, p.APIKey, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return catalog.Provider{}, mapError(err, "provider not found")
	}
	return p, nil
}

func (s *Store) UpdateProvider(ctx context.Context, p catalog.Provider) (catalog.Provider, error) {
	var row providerRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE providers
		SET name = $2, base_url = $3, api_key = $4, status = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+providerColumns+`
	`, p.ID, p.Name, p.BaseURL, p.APIKey, string(p.Status), time.Now().UTC())
	if err != nil {
		return catalog.Provider{}, mapError(err, fmt.Sprintf("provider %s not found", p.ID))
	}
	return row.toDomain(), nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (catalog.Provider, error) {
	var row providerRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+providerColumns+` FROM providers WHERE id = $1
	`, id)
	if err != nil {
		return catalog.Provider{}, mapError(err, fmt.Sprintf("provider %s not found", id))
	}
	return row.toDomain(), nil
}

func (s *Store) ListProviders(ctx context.Context) ([]catalog.Provider, error) {
	var rows []providerRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+providerColumns+` FROM providers ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	result := make([]catalog.Provider, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteProvider(ctx context.Context, id string) error {
	var referencing int
	if err := s.db.GetContext(ctx, &referencing, `
		SELECT COUNT(*) FROM models WHERE provider_id = $1
	`, id); err != nil {
		return err
	}
	if referencing > 0 {
		return errors.Conflict(fmt.Sprintf("provider %s still referenced by %d model(s)", id, referencing))
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound(fmt.Sprintf("provider %s not found", id))
	}
	return nil
}

type modelRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	UpstreamID    string    `db:"upstream_id"`
	ProviderID    string    `db:"provider_id"`
	Type          string    `db:"type"`
	PricePerCall  float64   `db:"price_per_call"`
	Status        string    `db:"status"`
	DefaultWidth  int       `db:"default_width"`
	DefaultHeight int       `db:"default_height"`
	MaxWidth      int       `db:"max_width"`
	MaxHeight     int       `db:"max_height"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r modelRow) toDomain() catalog.Model {
	return catalog.Model{
		ID:            r.ID,
		Name:          r.Name,
		UpstreamID:    r.UpstreamID,
		ProviderID:    r.ProviderID,
		Type:          catalog.GenerationType(r.Type),
		PricePerCall:  r.PricePerCall,
		Status:        catalog.Status(r.Status),
		DefaultWidth:  r.DefaultWidth,
		DefaultHeight: r.DefaultHeight,
		MaxWidth:      r.MaxWidth,
		MaxHeight:     r.MaxHeight,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const modelColumns = `id, name, upstream_id, provider_id, type, price_per_call, status,
	default_width, default_height, max_width, max_height, created_at, updated_at`

func (s *Store) CreateModel(ctx context.Context, m catalog.Model) (catalog.Model, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO models (id, name, upstream_id, provider_id, type, price_per_call, status,
			default_width, default_height, max_width, max_height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, m.ID, m.Name, m.UpstreamID, m.ProviderID, string(m.Type), m.PricePerCall, string(m.Status),
		m.DefaultWidth, m.DefaultHeight, m.MaxWidth, m.MaxHeight, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return catalog.Model{}, mapError(err, "model not found")
	}
	return m, nil
}

func (s *Store) UpdateModel(ctx context.Context, m catalog.Model) (catalog.Model, error) {
	var row modelRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE models
		SET name = $2, upstream_id = $3, provider_id = $4, type = $5, price_per_call = $6,
			status = $7, default_width = $8, default_height = $9, max_width = $10,
			max_height = $11, updated_at = $12
		WHERE id = $1
		RETURNING `+modelColumns+`
	`, m.ID, m.Name, m.UpstreamID, m.ProviderID, string(m.Type), m.PricePerCall, string(m.Status),
		m.DefaultWidth, m.DefaultHeight, m.MaxWidth, m.MaxHeight, time.Now().UTC())
	if err != nil {
		return catalog.Model{}, mapError(err, fmt.Sprintf("model %s not found", m.ID))
	}
	return row.toDomain(), nil
}

func (s *Store) GetModel(ctx context.Context, id string) (catalog.Model, error) {
	var row modelRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+modelColumns+` FROM models WHERE id = $1
	`, id)
	if err != nil {
		return catalog.Model{}, mapError(err, fmt.Sprintf("model %s not found", id))
	}
	return row.toDomain(), nil
}

func (s *Store) ListModels(ctx context.Context) ([]catalog.Model, error) {
	return s.listModels(ctx, false)
}

func (s *Store) ListActiveModels(ctx context.Context) ([]catalog.Model, error) {
	return s.listModels(ctx, true)
}

func (s *Store) listModels(ctx context.Context, activeOnly bool) ([]catalog.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models ORDER BY created_at`
	if activeOnly {
		query = `SELECT ` + modelColumns + ` FROM models WHERE status = 'active' ORDER BY created_at`
	}
	var rows []modelRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	result := make([]catalog.Model, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteModel(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound(fmt.Sprintf("model %s not found", id))
	}
	return nil
}

// --- APIKeyStore ------------------------------------------------------------

type apiKeyRow struct {
	ID         string       `db:"id"`
	AccountID  string       `db:"account_id"`
	Name       string       `db:"name"`
	Secret     string       `db:"secret"`
	Status     string       `db:"status"`
	UsageCount int64        `db:"usage_count"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func (r apiKeyRow) toDomain() apikey.Key {
	key := apikey.Key{
		ID:         r.ID,
		AccountID:  r.AccountID,
		Name:       r.Name,
		Secret:     r.Secret,
		Status:     apikey.Status(r.Status),
		UsageCount: r.UsageCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.LastUsedAt.Valid {
		key.LastUsedAt = r.LastUsedAt.Time
	}
	return key
}

const apiKeyColumns = `id, account_id, name, secret, status, usage_count, last_used_at, created_at, updated_at`

func (s *Store) CreateAPIKey(ctx context.Context, key apikey.Key) (apikey.Key, error) {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	key.CreatedAt = now
	key.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, account_id, name, secret, status, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, key.ID, key.AccountID, key.Name, key.Secret, string(key.Status), key.UsageCount,
		key.CreatedAt, key.UpdatedAt)
	if err != nil {
		return apikey.Key{}, mapError(err, "api key not found")
	}
	return key, nil
}

// UpdateAPIKey overwrites mutable key fields. The secret column is
// immutable after issuance.
func (s *Store) UpdateAPIKey(ctx context.Context, key apikey.Key) (apikey.Key, error) {
	var lastUsed interface{}
	if !key.LastUsedAt.IsZero() {
		lastUsed = key.LastUsedAt
	}
	var row apiKeyRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE api_keys
		SET name = $2, status = $3, usage_count = $4, last_used_at = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+apiKeyColumns+`
	`, key.ID, key.Name, string(key.Status), key.UsageCount, lastUsed, time.Now().UTC())
	if err != nil {
		return apikey.Key{}, mapError(err, fmt.Sprintf("api key %s not found", key.ID))
	}
	return row.toDomain(), nil
}

func (s *Store) GetAPIKey(ctx context.Context, id string) (apikey.Key, error) {
	var row apiKeyRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1
	`, id)
	if err != nil {
		return apikey.Key{}, mapError(err, fmt.Sprintf("api key %s not found", id))
	}
	return row.toDomain(), nil
}

func (s *Store) GetAPIKeyBySecret(ctx context.Context, secret string) (apikey.Key, error) {
	var row apiKeyRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+apiKeyColumns+` FROM api_keys WHERE secret = $1
	`, secret)
	if err != nil {
		return apikey.Key{}, mapError(err, "api key not found")
	}
	return row.toDomain(), nil
}

func (s *Store) ListAPIKeys(ctx context.Context, accountID string) ([]apikey.Key, error) {
	var rows []apiKeyRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+apiKeyColumns+` FROM api_keys
		WHERE $1 = '' OR account_id = $1
		ORDER BY created_at
	`, accountID)
	if err != nil {
		return nil, err
	}
	result := make([]apikey.Key, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound(fmt.Sprintf("api key %s not found", id))
	}
	return nil
}

// --- CallLogStore -----------------------------------------------------------

type callLogRow struct {
	ID             string    `db:"id"`
	AccountID      string    `db:"account_id"`
	APIKeyID       string    `db:"api_key_id"`
	ModelID        string    `db:"model_id"`
	Prompt         string    `db:"prompt"`
	Status         string    `db:"status"`
	Cost           float64   `db:"cost"`
	ResponseTimeNS int64     `db:"response_time_ns"`
	ErrorMessage   string    `db:"error_message"`
	ImageURL       string    `db:"image_url"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r callLogRow) toDomain() calllog.Entry {
	return calllog.Entry{
		ID:           r.ID,
		AccountID:    r.AccountID,
		APIKeyID:     r.APIKeyID,
		ModelID:      r.ModelID,
		Prompt:       r.Prompt,
		Status:       calllog.Status(r.Status),
		Cost:         r.Cost,
		ResponseTime: time.Duration(r.ResponseTimeNS),
		ErrorMessage: r.ErrorMessage,
		ImageURL:     r.ImageURL,
		CreatedAt:    r.CreatedAt,
	}
}

const callLogColumns = `id, account_id, api_key_id, model_id, prompt, status, cost,
	response_time_ns, error_message, image_url, created_at`

func (s *Store) CreateCallLog(ctx context.Context, entry calllog.Entry) (calllog.Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_logs (id, account_id, api_key_id, model_id, prompt, status, cost,
			response_time_ns, error_message, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, entry.ID, entry.AccountID, entry.APIKeyID, entry.ModelID, entry.Prompt,
		string(entry.Status), entry.Cost, entry.ResponseTime.Nanoseconds(),
		entry.ErrorMessage, entry.ImageURL, entry.CreatedAt)
	if err != nil {
		return calllog.Entry{}, err
	}
	return entry, nil
}

func (s *Store) ListCallLogs(ctx context.Context, accountID string, limit int) ([]calllog.Entry, error) {
	// LIMIT NULL means no limit, so 0 passes through as unbounded.
	var rows []callLogRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+callLogColumns+` FROM call_logs
		WHERE $1 = '' OR account_id = $1
		ORDER BY created_at DESC
		LIMIT NULLIF($2, 0)
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	result := make([]calllog.Entry, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) CallLogStats(ctx context.Context, since time.Time) (calllog.Stats, error) {
	var stats calllog.Stats
	var succeeded int

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM providers),
			(SELECT COUNT(*) FROM models),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(cost), 0),
			COALESCE(SUM(cost) FILTER (WHERE created_at >= $1), 0)
		FROM call_logs
	`, since).Scan(
		&stats.TotalAccounts, &stats.TotalProviders, &stats.TotalModels,
		&stats.TotalCalls, &succeeded, &stats.TodayCalls,
		&stats.TotalRevenue, &stats.TodayRevenue,
	)
	if err != nil {
		return calllog.Stats{}, err
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(succeeded) / float64(stats.TotalCalls) * 100
	}
	return stats, nil
}

// --- SettingsStore ----------------------------------------------------------

type settingsRow struct {
	SiteName           string  `db:"site_name"`
	SiteDescription    string  `db:"site_description"`
	AllowRegistration  bool    `db:"allow_registration"`
	DefaultUserBalance float64 `db:"default_user_balance"`
	AdminPasswordHash  string  `db:"admin_password_hash"`
}

func (s *Store) GetSettings(ctx context.Context) (settings.Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, `
		SELECT site_name, site_description, allow_registration, default_user_balance, admin_password_hash
		FROM settings WHERE id = 1
	`)
	if stderrors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return settings.Settings{}, err
	}
	return settings.Settings{
		SiteName:           row.SiteName,
		SiteDescription:    row.SiteDescription,
		AllowRegistration:  row.AllowRegistration,
		DefaultUserBalance: row.DefaultUserBalance,
		AdminPasswordHash:  row.AdminPasswordHash,
	}, nil
}

// UpdateSettings upserts the single settings row. An empty admin
// password hash preserves the stored one.
func (s *Store) UpdateSettings(ctx context.Context, updated settings.Settings) (settings.Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO settings (id, site_name, site_description, allow_registration, default_user_balance, admin_password_hash)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			site_description = EXCLUDED.site_description,
			allow_registration = EXCLUDED.allow_registration,
			default_user_balance = EXCLUDED.default_user_balance,
			admin_password_hash = CASE
				WHEN EXCLUDED.admin_password_hash = '' THEN settings.admin_password_hash
				ELSE EXCLUDED.admin_password_hash
			END
		RETURNING site_name, site_description, allow_registration, default_user_balance, admin_password_hash
	`, updated.SiteName, updated.SiteDescription, updated.AllowRegistration,
		updated.DefaultUserBalance, updated.AdminPasswordHash)
	if err != nil {
		return settings.Settings{}, err
	}
	return settings.Settings{
		SiteName:           row.SiteName,
		SiteDescription:    row.SiteDescription,
		AllowRegistration:  row.AllowRegistration,
		DefaultUserBalance: row.DefaultUserBalance,
		AdminPasswordHash:  row.AdminPasswordHash,
	}, nil
}
