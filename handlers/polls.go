package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"backrooms/db"
	"backrooms/db/models"
)

type CreatePollRequest struct {
	BackroomID       string   `json:"backroom_id"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	ExpiresInMinutes int      `json:"expires_in_minutes,omitempty"`
}

type CreatePollResponse struct {
	PollID string `json:"poll_id"`
	Error  string `json:"error,omitempty"`
}

func (a *App) CreatePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" || len(req.Options) < 2 {
		writeJSONError(w, http.StatusBadRequest, "A poll needs a question and at least two options")
		return
	}
	if req.ExpiresInMinutes <= 0 {
		req.ExpiresInMinutes = 60
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	backroom, err := db.GetBackroomByID(ctx, req.BackroomID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Backroom not found")
		return
	}

	votes := make(map[string]int, len(req.Options))
	for _, option := range req.Options {
		votes[option] = 0
	}

	poll := models.Poll{
		ID:        uuid.NewString(),
		Question:  req.Question,
		Options:   req.Options,
		Votes:     votes,
		Status:    models.PollStatusOpen,
		ExpiresAt: time.Now().Add(time.Duration(req.ExpiresInMinutes) * time.Minute),
	}

	if err := db.AddPoll(ctx, backroom.ID, poll); err != nil {
		http.Error(w, "Failed to create poll", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreatePollResponse{PollID: poll.ID})
}

type VotePollRequest struct {
	BackroomID string `json:"backroom_id"`
	PollID     string `json:"poll_id"`
	Option     string `json:"option"`
}

func (a *App) VotePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VotePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	backroom, err := db.GetBackroomByID(ctx, req.BackroomID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Backroom not found")
		return
	}

	poll := findPoll(backroom, req.PollID)
	if poll == nil {
		writeJSONError(w, http.StatusNotFound, "Poll not found")
		return
	}
	if poll.Status != models.PollStatusOpen || time.Now().After(poll.ExpiresAt) {
		writeJSONError(w, http.StatusConflict, "Poll is closed")
		return
	}
	if !containsOption(poll.Options, req.Option) {
		writeJSONError(w, http.StatusBadRequest, "Unknown poll option")
		return
	}

	if err := db.VotePoll(ctx, backroom.ID, poll.ID, req.Option); err != nil {
		http.Error(w, "Failed to record vote", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type ResolvePollRequest struct {
	BackroomID string `json:"backroom_id"`
	PollID     string `json:"poll_id"`
	Rounds     int    `json:"rounds,omitempty"`
}

type ResolvePollResponse struct {
	Winner   string `json:"winner"`
	Addition string `json:"addition"`
	Error    string `json:"error,omitempty"`
}

// ResolvePoll closes a poll and continues the backroom with the winning
// option as the new topic.
func (a *App) ResolvePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResolvePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	backroom, err := db.GetBackroomByID(ctx, req.BackroomID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Backroom not found")
		return
	}

	poll := findPoll(backroom, req.PollID)
	if poll == nil {
		writeJSONError(w, http.StatusNotFound, "Poll not found")
		return
	}
	if poll.Status != models.PollStatusOpen {
		writeJSONError(w, http.StatusConflict, "Poll already resolved")
		return
	}

	winner := winningOption(poll)

	if err := db.ResolvePoll(ctx, backroom.ID, poll.ID); err != nil {
		http.Error(w, "Failed to resolve poll", http.StatusInternalServerError)
		return
	}

	addition, err := a.continueBackroom(ctx, backroom, winner, req.Rounds)
	if err != nil {
		log.Printf("[POLL_CONTINUE_ERROR] backroom=%s poll=%s: %v", req.BackroomID, req.PollID, err)
		writeGenerationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ResolvePollResponse{
		Winner:   winner,
		Addition: addition,
	})
}

func findPoll(backroom *models.BackroomDocument, pollID string) *models.Poll {
	for i := range backroom.Polls {
		if backroom.Polls[i].ID == pollID {
			return &backroom.Polls[i]
		}
	}
	return nil
}

func containsOption(options []string, option string) bool {
	for _, candidate := range options {
		if candidate == option {
			return true
		}
	}
	return false
}

// winningOption picks the option with the highest tally. Ties go to the
// option listed first.
func winningOption(poll *models.Poll) string {
	winner := poll.Options[0]
	best := poll.Votes[winner]
	for _, option := range poll.Options[1:] {
		if poll.Votes[option] > best {
			winner = option
			best = poll.Votes[option]
		}
	}
	return winner
}
