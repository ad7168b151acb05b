package handlers

import (
	"encoding/json"
	"net/http"
)

type credentialStatusResponse struct {
	Ready              bool `json:"ready"`
	SelectionRequested bool `json:"selection_requested"`
}

// CredentialStatus reports whether a backend credential is currently
// selected and whether the UI should re-prompt the user for one.
func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	// Absence of a credential source means "assume ready".
	if a.Credentials == nil {
		a.json(w, http.StatusOK, credentialStatusResponse{Ready: true})
		return
	}
	resp := credentialStatusResponse{Ready: a.Credentials.Ready(r.Context())}
	if probe, ok := a.Credentials.(interface{ SelectionRequested() bool }); ok {
		resp.SelectionRequested = probe.SelectionRequested()
	}
	a.json(w, http.StatusOK, resp)
}

type setCredentialRequest struct {
	Token string `json:"token"`
}

// SetCredential stores a new backend credential. Only available when the
// credential source is database backed; the token is passed through, never
// inspected.
func (a *App) SetCredential(w http.ResponseWriter, r *http.Request) {
	if a.CredentialAdmin == nil {
		a.error(w, http.StatusConflict, "unsupported", "credential is provisioned from the environment")
		return
	}
	var req setCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.CredentialAdmin.SetToken(r.Context(), req.Token); err != nil {
		a.Logger.Error().Err(err).Msg("credentials: store token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store credential")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "stored"})
}
