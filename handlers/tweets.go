package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backrooms/db"
	"backrooms/db/models"
	"backrooms/social"
)

type PendingTweetItem struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	BackroomID string    `json:"backroom_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type PendingTweetsResponse struct {
	AgentID string             `json:"agent_id"`
	Tweets  []PendingTweetItem `json:"tweets"`
}

func (a *App) PendingTweets(w http.ResponseWriter, r *http.Request) {
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

	tweets := make([]PendingTweetItem, 0, len(agent.PendingTweets))
	for _, tweet := range agent.PendingTweets {
		tweets = append(tweets, PendingTweetItem{
			ID:         tweet.ID,
			Text:       tweet.Text,
			BackroomID: tweet.BackroomID.Hex(),
			CreatedAt:  tweet.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PendingTweetsResponse{AgentID: agentID, Tweets: tweets})
}

type PostTweetRequest struct {
	AgentID string `json:"agent_id"`
	TweetID string `json:"tweet_id"`
}

type PostTweetResponse struct {
	TweetID string `json:"tweet_id"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

func (a *App) PostTweet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PostTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	agent, err := db.GetAgentByID(ctx, req.AgentID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Agent not found")
		return
	}

	var pending *models.PendingTweet
	for i := range agent.PendingTweets {
		if agent.PendingTweets[i].ID == req.TweetID {
			pending = &agent.PendingTweets[i]
			break
		}
	}
	if pending == nil {
		writeJSONError(w, http.StatusNotFound, "Pending tweet not found")
		return
	}

	if agent.SocialToken == nil {
		writeJSONError(w, http.StatusConflict, "Agent has no connected X account")
		return
	}

	post, err := a.Dispatcher.PostMessage(ctx, agent.ID.Hex(), social.TokenPair{
		AccessToken:  agent.SocialToken.AccessToken,
		RefreshToken: agent.SocialToken.RefreshToken,
	}, pending.Text)
	if err != nil {
		var refreshErr *social.TokenRefreshError
		if errors.As(err, &refreshErr) {
			log.Printf("[TWEET_REFRESH_ERROR] agent=%s: %v", req.AgentID, err)
			writeJSONError(w, http.StatusBadGateway, "X authorization expired, reconnect the account")
			return
		}
		log.Printf("[TWEET_POST_ERROR] agent=%s: %v", req.AgentID, err)
		writeJSONError(w, http.StatusBadGateway, "Failed to post tweet")
		return
	}

	recordPostedTweet(ctx, agent.ID, pending.ID, post)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PostTweetResponse{TweetID: post.ID, URL: post.URL})
}

// recordPostedTweet moves a pending tweet into the agent's post history.
// Both writes are best-effort after a successful post: the tweet exists on
// X either way, so failures are logged rather than surfaced.
func recordPostedTweet(ctx context.Context, agentID primitive.ObjectID, pendingID string, post *social.Post) {
	if err := db.PushPostedTweet(ctx, agentID, models.PostedTweet{
		TweetID: post.ID,
		URL:     post.URL,
	}); err != nil {
		log.Printf("[TWEET_HISTORY_ERROR] agent=%s: %v", agentID.Hex(), err)
	}
	if err := db.RemovePendingTweet(ctx, agentID, pendingID); err != nil {
		log.Printf("[TWEET_CLEANUP_ERROR] agent=%s: %v", agentID.Hex(), err)
	}
}
