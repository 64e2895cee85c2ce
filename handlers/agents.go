package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"backrooms/db"
	"backrooms/db/models"
)

type CreateAgentRequest struct {
	Name   string `json:"name"`
	Traits string `json:"traits"`
	Focus  string `json:"focus"`
}

type CreateAgentResponse struct {
	AgentID string `json:"agent_id"`
	Error   string `json:"error,omitempty"`
}

func (a *App) CreateAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateAgentResponse{Error: "Agent name is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	agentID, err := db.CreateAgent(ctx, &models.AgentDocument{
		Name:   strings.TrimSpace(req.Name),
		Traits: req.Traits,
		Focus:  req.Focus,
	})
	if err != nil {
		http.Error(w, "Failed to create agent", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreateAgentResponse{AgentID: agentID.Hex()})
}

type AgentSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Traits         string    `json:"traits"`
	Focus          string    `json:"focus"`
	EvolutionCount int       `json:"evolution_count"`
	PendingTweets  int       `json:"pending_tweets"`
	Connected      bool      `json:"connected"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListAgentsResponse struct {
	Agents []AgentSummary `json:"agents"`
	Count  int            `json:"count"`
}

func (a *App) ListAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	agents, err := db.ListAgents(ctx)
	if err != nil {
		http.Error(w, "Failed to fetch agents", http.StatusInternalServerError)
		return
	}

	summaries := make([]AgentSummary, 0, len(agents))
	for _, agent := range agents {
		summaries = append(summaries, AgentSummary{
			ID:             agent.ID.Hex(),
			Name:           agent.Name,
			Traits:         agent.Traits,
			Focus:          agent.Focus,
			EvolutionCount: len(agent.Evolutions),
			PendingTweets:  len(agent.PendingTweets),
			Connected:      agent.SocialToken != nil,
			CreatedAt:      agent.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListAgentsResponse{Agents: summaries, Count: len(summaries)})
}

type EvolutionItem struct {
	BackroomID  string    `json:"backroom_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type PostedTweetItem struct {
	TweetID   string    `json:"tweet_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentDetailResponse deliberately omits the token pair and handshake
// state; credentials never leave the database through this surface.
type AgentDetailResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Traits       string            `json:"traits"`
	Focus        string            `json:"focus"`
	Evolutions   []EvolutionItem   `json:"evolutions"`
	PostedTweets []PostedTweetItem `json:"posted_tweets"`
	Connected    bool              `json:"connected"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (a *App) AgentDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agentID := r.URL.Query().Get("id")
	if agentID == "" {
		http.Error(w, "Agent ID is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	agent, err := db.GetAgentByID(ctx, agentID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Agent not found"})
		return
	}

	evolutions := make([]EvolutionItem, 0, len(agent.Evolutions))
	for _, evo := range agent.Evolutions {
		evolutions = append(evolutions, EvolutionItem{
			BackroomID:  evo.BackroomID.Hex(),
			Description: evo.Description,
			CreatedAt:   evo.CreatedAt,
		})
	}

	posted := make([]PostedTweetItem, 0, len(agent.PostedTweets))
	for _, tweet := range agent.PostedTweets {
		posted = append(posted, PostedTweetItem{
			TweetID:   tweet.TweetID,
			URL:       tweet.URL,
			CreatedAt: tweet.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AgentDetailResponse{
		ID:           agent.ID.Hex(),
		Name:         agent.Name,
		Traits:       agent.Traits,
		Focus:        agent.Focus,
		Evolutions:   evolutions,
		PostedTweets: posted,
		Connected:    agent.SocialToken != nil,
		CreatedAt:    agent.CreatedAt,
	})
}

// AgentDetailREST handles RESTful paths like /agents/ID
func (a *App) AgentDetailREST(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/agents/")
	if path == "" || path == r.URL.Path {
		http.Error(w, "Agent ID is required", http.StatusBadRequest)
		return
	}

	r.URL.RawQuery = "id=" + path
	a.AgentDetail(w, r)
}
