package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nekoko-ai/platform/internal/app/services/generation"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/internal/middleware"
)

// models is the public catalog listing. Only active models are shown
// and upstream identifiers stay internal.
func (h *handler) models(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	models, err := h.app.Catalog.ListActiveModels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type publicModel struct {
		ID            string  `json:"id"`
		Name          string  `json:"name"`
		Type          string  `json:"type"`
		PricePerCall  float64 `json:"price_per_call"`
		DefaultWidth  int     `json:"default_width"`
		DefaultHeight int     `json:"default_height"`
		MaxWidth      int     `json:"max_width,omitempty"`
		MaxHeight     int     `json:"max_height,omitempty"`
	}
	out := make([]publicModel, 0, len(models))
	for _, m := range models {
		out = append(out, publicModel{
			ID:            m.ID,
			Name:          m.Name,
			Type:          string(m.Type),
			PricePerCall:  m.PricePerCall,
			DefaultWidth:  m.DefaultWidth,
			DefaultHeight: m.DefaultHeight,
			MaxWidth:      m.MaxWidth,
			MaxHeight:     m.MaxHeight,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized(""))
		return
	}

	var payload struct {
		Prompt  string `json:"prompt"`
		ModelID string `json:"model_id"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.InvalidInput("invalid request body"))
		return
	}

	result, err := h.app.Generation.Generate(r.Context(), generation.Request{
		AccountID: identity.AccountID,
		APIKeyID:  identity.APIKeyID,
		Prompt:    payload.Prompt,
		ModelID:   payload.ModelID,
		Width:     payload.Width,
		Height:    payload.Height,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ImageURL    string  `json:"image_url,omitempty"`
		ImageBase64 string  `json:"image_base64,omitempty"`
		Cost        float64 `json:"cost"`
		Balance     float64 `json:"balance"`
		ModelName   string  `json:"model_name"`
	}{
		ImageURL:    result.ImageURL,
		ImageBase64: result.ImageBase64,
		Cost:        result.Cost,
		Balance:     result.Balance,
		ModelName:   result.ModelName,
	})
}

func (h *handler) userBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized(""))
		return
	}
	balance, err := h.app.Ledger.Balance(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

func (h *handler) userLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized(""))
		return
	}
	entries, err := h.app.AuditLog.ListForAccount(r.Context(), identity.AccountID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) userAPIKeys(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized(""))
		return
	}

	switch r.Method {
	case http.MethodGet:
		keys, err := h.app.APIKeys.List(r.Context(), identity.AccountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, keys)

	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, errors.InvalidInput("invalid request body"))
			return
		}
		key, err := h.app.APIKeys.Create(r.Context(), identity.AccountID, payload.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, key)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) userAPIKeyResource(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized(""))
		return
	}

	keyID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/user/apikeys"), "/")
	if keyID == "" || strings.Contains(keyID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.app.APIKeys.Delete(r.Context(), identity.AccountID, keyID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryLimit parses the optional ?limit= parameter; 0 means service
// default.
func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
