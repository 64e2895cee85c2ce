package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"backrooms/db"
	"backrooms/db/models"
)

type BeginAuthResponse struct {
	AuthURL string `json:"auth_url"`
	Error   string `json:"error,omitempty"`
}

// BeginAuth starts the X OAuth handshake for an agent. The PKCE verifier
// and CSRF state are stored on the agent record, replacing any handshake
// already in flight, and the authorization URL is returned to the caller.
func (a *App) BeginAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		http.Error(w, "Agent ID is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	agent, err := db.GetAgentByID(ctx, agentID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Agent not found")
		return
	}

	flow, err := a.Social.BeginAuth()
	if err != nil {
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	if err := db.SetAuthState(ctx, agent.ID, &models.SocialAuthState{
		State:    flow.State,
		Verifier: flow.Verifier,
	}); err != nil {
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BeginAuthResponse{AuthURL: flow.AuthURL})
}

// AuthCallback finishes the handshake: it ties the callback state to an
// agent, exchanges the code, stores the token pair, and clears the
// transient handshake state.
func (a *App) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	if errStr := q.Get("error"); errStr != "" {
		http.Error(w, "Authorization failed: "+errStr, http.StatusBadRequest)
		return
	}

	state := q.Get("state")
	code := q.Get("code")
	if state == "" || code == "" {
		http.Error(w, "Missing state or code", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	agent, err := db.GetAgentByAuthState(ctx, state)
	if err != nil || agent.AuthState == nil {
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	pair, err := a.Social.ExchangeCode(ctx, code, agent.AuthState.Verifier)
	if err != nil {
		log.Printf("[AUTH_EXCHANGE_ERROR] agent=%s: %v", agent.ID.Hex(), err)
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	if err := db.SetSocialToken(ctx, agent.ID, &models.SocialToken{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}); err != nil {
		http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
		return
	}
	if err := db.ClearAuthState(ctx, agent.ID); err != nil {
		log.Printf("[AUTH_CLEANUP_ERROR] agent=%s: %v", agent.ID.Hex(), err)
	}

	w.Write([]byte("X account connected! You can close this window."))
}
