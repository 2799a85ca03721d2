package httpapi

import (
	"net/http"
	"strings"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/app/domain/settings"
	accountssvc "github.com/nekoko-ai/platform/internal/app/services/accounts"
	"github.com/nekoko-ai/platform/internal/errors"
)

// admin dispatches the /admin tree. RequireAdmin has already vetted the
// caller.
func (h *handler) admin(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[0] {
	case "users":
		h.adminUsers(w, r, parts[1:])
	case "providers":
		h.adminProviders(w, r, parts[1:])
	case "models":
		h.adminModels(w, r, parts[1:])
	case "apikeys":
		h.adminAPIKeys(w, r, parts[1:])
	case "logs":
		h.adminLogs(w, r)
	case "stats":
		h.adminStats(w, r)
	case "settings":
		h.adminSettings(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) adminUsers(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			accts, err := h.app.Accounts.List(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, accts)

		case http.MethodPost:
			var payload struct {
				Username string  `json:"username"`
				Email    string  `json:"email"`
				Password string  `json:"password"`
				Balance  float64 `json:"balance"`
				Role     string  `json:"role"`
			}
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, errors.InvalidInput("invalid request body"))
				return
			}
			acct, err := h.app.Accounts.Create(r.Context(), payload.Username, payload.Email,
				payload.Password, payload.Balance, account.Role(payload.Role))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, acct)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	accountID := rest[0]
	if len(rest) == 2 && rest[1] == "credit" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Amount float64 `json:"amount"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		balance, err := h.app.Ledger.Credit(r.Context(), accountID, payload.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
		return
	}
	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		acct, err := h.app.Accounts.Get(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)

	case http.MethodPatch:
		var payload struct {
			Email    *string `json:"email"`
			Password *string `json:"password"`
			Role     *string `json:"role"`
			Status   *string `json:"status"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		var role *account.Role
		if payload.Role != nil {
			converted := account.Role(*payload.Role)
			role = &converted
		}
		var status *account.Status
		if payload.Status != nil {
			converted := account.Status(*payload.Status)
			status = &converted
		}
		acct, err := h.app.Accounts.Update(r.Context(), accountID, payload.Email, payload.Password, role, status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)

	case http.MethodDelete:
		if err := h.app.Accounts.Delete(r.Context(), accountID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type providerPayload struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Status  string `json:"status"`
}

func (h *handler) adminProviders(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			providers, err := h.app.Catalog.ListProviders(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, providers)

		case http.MethodPost:
			var payload providerPayload
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, errors.InvalidInput("invalid request body"))
				return
			}
			created, err := h.app.Catalog.CreateProvider(r.Context(), catalog.Provider{
				Name:    payload.Name,
				BaseURL: payload.BaseURL,
				APIKey:  payload.APIKey,
				Status:  catalog.Status(payload.Status),
			})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	providerID := rest[0]
	switch r.Method {
	case http.MethodGet:
		provider, err := h.app.Catalog.GetProvider(r.Context(), providerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, provider)

	case http.MethodPut, http.MethodPatch:
		var payload providerPayload
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		updated, err := h.app.Catalog.UpdateProvider(r.Context(), catalog.Provider{
			ID:      providerID,
			Name:    payload.Name,
			BaseURL: payload.BaseURL,
			APIKey:  payload.APIKey,
			Status:  catalog.Status(payload.Status),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.app.Catalog.DeleteProvider(r.Context(), providerID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type modelPayload struct {
	Name          string  `json:"name"`
	UpstreamID    string  `json:"upstream_id"`
	ProviderID    string  `json:"provider_id"`
	Type          string  `json:"type"`
	PricePerCall  float64 `json:"price_per_call"`
	Status        string  `json:"status"`
	DefaultWidth  int     `json:"default_width"`
	DefaultHeight int     `json:"default_height"`
	MaxWidth      int     `json:"max_width"`
	MaxHeight     int     `json:"max_height"`
}

func (p modelPayload) toModel(id string) catalog.Model {
	return catalog.Model{
		ID:            id,
		Name:          p.Name,
		UpstreamID:    p.UpstreamID,
		ProviderID:    p.ProviderID,
		Type:          catalog.GenerationType(p.Type),
		PricePerCall:  p.PricePerCall,
		Status:        catalog.Status(p.Status),
		DefaultWidth:  p.DefaultWidth,
		DefaultHeight: p.DefaultHeight,
		MaxWidth:      p.MaxWidth,
		MaxHeight:     p.MaxHeight,
	}
}

func (h *handler) adminModels(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			models, err := h.app.Catalog.ListModels(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, models)

		case http.MethodPost:
			var payload modelPayload
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, errors.InvalidInput("invalid request body"))
				return
			}
			created, err := h.app.Catalog.CreateModel(r.Context(), payload.toModel(""))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	modelID := rest[0]
	switch r.Method {
	case http.MethodGet:
		model, err := h.app.Catalog.GetModel(r.Context(), modelID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model)

	case http.MethodPut, http.MethodPatch:
		var payload modelPayload
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		updated, err := h.app.Catalog.UpdateModel(r.Context(), payload.toModel(modelID))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.app.Catalog.DeleteModel(r.Context(), modelID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) adminAPIKeys(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		keys, err := h.app.APIKeys.List(r.Context(), "")
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, keys)
		return
	}
	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	keyID := rest[0]
	switch r.Method {
	case http.MethodPatch:
		var payload struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		key, err := h.app.APIKeys.SetStatus(r.Context(), keyID, apikey.Status(payload.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, key)

	case http.MethodDelete:
		if err := h.app.APIKeys.Delete(r.Context(), "", keyID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) adminLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.app.AuditLog.ListAll(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) adminStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.app.AuditLog.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) adminSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		current, err := h.app.Settings.GetSettings(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, current)

	case http.MethodPut:
		var payload struct {
			SiteName           string  `json:"site_name"`
			SiteDescription    string  `json:"site_description"`
			AllowRegistration  bool    `json:"allow_registration"`
			DefaultUserBalance float64 `json:"default_user_balance"`
			AdminPassword      string  `json:"admin_password"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		if payload.DefaultUserBalance < 0 {
			writeError(w, errors.InvalidInput("default balance must not be negative"))
			return
		}

		next := settings.Settings{
			SiteName:           strings.TrimSpace(payload.SiteName),
			SiteDescription:    strings.TrimSpace(payload.SiteDescription),
			AllowRegistration:  payload.AllowRegistration,
			DefaultUserBalance: payload.DefaultUserBalance,
		}
		if payload.AdminPassword != "" {
			hash, err := accountssvc.HashPassword(payload.AdminPassword)
			if err != nil {
				writeError(w, errors.Internal("hash admin password", err))
				return
			}
			next.AdminPasswordHash = hash
		}

		updated, err := h.app.Settings.UpdateSettings(r.Context(), next)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
