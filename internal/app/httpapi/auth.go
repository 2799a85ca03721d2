package httpapi

import (
	"net/http"
	"time"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/internal/middleware"
)

// sessionResponse is returned by register and login. The token is also
// set as an HttpOnly cookie for browser clients.
type sessionResponse struct {
	Token string          `json:"token"`
	User  account.Account `json:"user"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.InvalidInput("invalid request body"))
		return
	}

	acct, err := h.app.Accounts.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issueSession(w, acct, http.StatusCreated)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.InvalidInput("invalid request body"))
		return
	}

	acct, err := h.app.Accounts.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issueSession(w, acct, http.StatusOK)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized(""))
		return
	}
	acct, err := h.app.Accounts.Get(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *handler) issueSession(w http.ResponseWriter, acct account.Account, status int) {
	token, err := middleware.IssueToken(h.jwtSecret, acct, h.tokenTTL)
	if err != nil {
		writeError(w, errors.Internal("issue session token", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{Token: token, User: acct})
}
