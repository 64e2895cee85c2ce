package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"backrooms/config"
	"backrooms/db"
	"backrooms/db/models"
	"backrooms/llm"
	"backrooms/narrative"
	"backrooms/prompts"
	"backrooms/social"
)

// generationTimeout bounds one full dialogue generation, which is several
// sequential model calls.
const generationTimeout = 180 * time.Second

func participantFromAgent(agent *models.AgentDocument) prompts.Participant {
	evolutions := make([]string, 0, len(agent.Evolutions))
	for _, evo := range agent.Evolutions {
		evolutions = append(evolutions, evo.Description)
	}
	return prompts.Participant{
		Name:       agent.Name,
		Traits:     agent.Traits,
		Focus:      agent.Focus,
		Evolutions: evolutions,
	}
}

// summaryPayload is the JSON shape requested by prompts.SummaryPrompt.
type summaryPayload struct {
	ExplorerEvolution  string   `json:"explorerEvolution"`
	ResponderEvolution string   `json:"responderEvolution"`
	Tweet              string   `json:"tweet"`
	Tags               []string `json:"tags"`
}

type GenerateBackroomRequest struct {
	ExplorerID       string `json:"explorer_id"`
	ResponderID      string `json:"responder_id"`
	ConversationType string `json:"conversation_type"`
	Topic            string `json:"topic"`
	Rounds           int    `json:"rounds,omitempty"`
	Tweet            bool   `json:"tweet,omitempty"`
}

type GenerateBackroomResponse struct {
	BackroomID string   `json:"backroom_id"`
	Transcript string   `json:"transcript"`
	Preview    string   `json:"preview"`
	Tags       []string `json:"tags"`
	TweetText  string   `json:"tweet_text,omitempty"`
	TweetURL   string   `json:"tweet_url,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (a *App) GenerateBackroom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateBackroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSONError(w, http.StatusBadRequest, "Topic is required")
		return
	}
	if req.ExplorerID == req.ResponderID {
		writeJSONError(w, http.StatusBadRequest, "Explorer and responder must be different agents")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	explorer, err := db.GetAgentByID(ctx, req.ExplorerID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Explorer agent not found")
		return
	}
	responder, err := db.GetAgentByID(ctx, req.ResponderID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Responder agent not found")
		return
	}

	rounds := req.Rounds
	if rounds <= 0 {
		rounds = config.GetBackroomRounds()
	}

	stage := narrative.NewStage(a.Gen,
		req.ConversationType, req.Topic,
		participantFromAgent(explorer), participantFromAgent(responder))

	if err := stage.SeedNarrative(ctx); err != nil {
		log.Printf("[BACKROOM_SEED_ERROR] explorer=%s responder=%s: %v", req.ExplorerID, req.ResponderID, err)
		writeGenerationError(w, err)
		return
	}

	turns, err := stage.RunDialogue(ctx, rounds)
	if err != nil {
		log.Printf("[BACKROOM_TURN_ERROR] explorer=%s responder=%s: %v", req.ExplorerID, req.ResponderID, err)
		writeGenerationError(w, err)
		return
	}

	transcript := stage.RenderTranscript(turns)

	var summary summaryPayload
	summaryPrompt := prompts.SummaryPrompt(req.Topic, transcript,
		participantFromAgent(explorer), participantFromAgent(responder))
	if err := a.Gen.GenerateJSON(ctx, summaryPrompt, &summary); err != nil {
		log.Printf("[BACKROOM_SUMMARY_ERROR] explorer=%s responder=%s: %v", req.ExplorerID, req.ResponderID, err)
		writeGenerationError(w, err)
		return
	}

	backroomID, err := db.CreateBackroom(ctx, &models.BackroomDocument{
		ExplorerID:       explorer.ID,
		ResponderID:      responder.ID,
		Transcript:       transcript,
		Preview:          makePreview(transcript, 280),
		Tags:             normalizeTags(summary.Tags),
		ConversationType: req.ConversationType,
		Topic:            req.Topic,
		NarrativeState:   stage.State().Document(),
	})
	if err != nil {
		http.Error(w, "Failed to save backroom", http.StatusInternalServerError)
		return
	}

	if err := db.PushEvolution(ctx, explorer.ID, models.Evolution{
		BackroomID:  backroomID,
		Description: summary.ExplorerEvolution,
	}); err != nil {
		log.Printf("[BACKROOM_EVOLUTION_ERROR] agent=%s: %v", explorer.ID.Hex(), err)
	}
	if err := db.PushEvolution(ctx, responder.ID, models.Evolution{
		BackroomID:  backroomID,
		Description: summary.ResponderEvolution,
	}); err != nil {
		log.Printf("[BACKROOM_EVOLUTION_ERROR] agent=%s: %v", responder.ID.Hex(), err)
	}

	resp := GenerateBackroomResponse{
		BackroomID: backroomID.Hex(),
		Transcript: transcript,
		Preview:    makePreview(transcript, 280),
		Tags:       normalizeTags(summary.Tags),
		TweetText:  summary.Tweet,
	}

	if summary.Tweet != "" {
		pending := models.PendingTweet{
			ID:         uuid.NewString(),
			Text:       summary.Tweet,
			BackroomID: backroomID,
		}
		if err := db.PushPendingTweet(ctx, explorer.ID, pending); err != nil {
			log.Printf("[BACKROOM_PENDING_TWEET_ERROR] agent=%s: %v", explorer.ID.Hex(), err)
		}

		// Optional immediate dispatch; a failure is logged, not fatal to
		// the already-persisted backroom.
		if req.Tweet && explorer.SocialToken != nil {
			post, postErr := a.Dispatcher.PostMessage(ctx, explorer.ID.Hex(), social.TokenPair{
				AccessToken:  explorer.SocialToken.AccessToken,
				RefreshToken: explorer.SocialToken.RefreshToken,
			}, summary.Tweet)
			if postErr != nil {
				log.Printf("[BACKROOM_TWEET_ERROR] agent=%s: %v", explorer.ID.Hex(), postErr)
			} else {
				recordPostedTweet(ctx, explorer.ID, pending.ID, post)
				resp.TweetURL = post.URL
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type BackroomFeedItem struct {
	ID               string    `json:"id"`
	ExplorerID       string    `json:"explorer_id"`
	ResponderID      string    `json:"responder_id"`
	Preview          string    `json:"preview"`
	Tags             []string  `json:"tags"`
	ConversationType string    `json:"conversation_type"`
	Topic            string    `json:"topic"`
	CreatedAt        time.Time `json:"created_at"`
}

type BackroomFeedResponse struct {
	Backrooms []BackroomFeedItem `json:"backrooms"`
	Total     int64              `json:"total"`
	HasMore   bool               `json:"has_more"`
}

func (a *App) BackroomFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	backrooms, total, err := db.ListBackrooms(ctx, limit, offset)
	if err != nil {
		http.Error(w, "Failed to fetch backrooms", http.StatusInternalServerError)
		return
	}

	items := make([]BackroomFeedItem, 0, len(backrooms))
	for _, backroom := range backrooms {
		items = append(items, BackroomFeedItem{
			ID:               backroom.ID.Hex(),
			ExplorerID:       backroom.ExplorerID.Hex(),
			ResponderID:      backroom.ResponderID.Hex(),
			Preview:          backroom.Preview,
			Tags:             backroom.Tags,
			ConversationType: backroom.ConversationType,
			Topic:            backroom.Topic,
			CreatedAt:        backroom.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BackroomFeedResponse{
		Backrooms: items,
		Total:     total,
		HasMore:   int64(offset+limit) < total,
	})
}

type PollItem struct {
	ID        string         `json:"id"`
	Question  string         `json:"question"`
	Options   []string       `json:"options"`
	Votes     map[string]int `json:"votes"`
	Status    string         `json:"status"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type BackroomDetailResponse struct {
	ID               string     `json:"id"`
	ExplorerID       string     `json:"explorer_id"`
	ResponderID      string     `json:"responder_id"`
	Transcript       string     `json:"transcript"`
	Tags             []string   `json:"tags"`
	ConversationType string     `json:"conversation_type"`
	Topic            string     `json:"topic"`
	Polls            []PollItem `json:"polls"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (a *App) BackroomDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	backroomID := r.URL.Query().Get("id")
	if backroomID == "" {
		http.Error(w, "Backroom ID is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	backroom, err := db.GetBackroomByID(ctx, backroomID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Backroom not found")
		return
	}

	polls := make([]PollItem, 0, len(backroom.Polls))
	for _, poll := range backroom.Polls {
		polls = append(polls, PollItem{
			ID:        poll.ID,
			Question:  poll.Question,
			Options:   poll.Options,
			Votes:     poll.Votes,
			Status:    poll.Status,
			ExpiresAt: poll.ExpiresAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BackroomDetailResponse{
		ID:               backroom.ID.Hex(),
		ExplorerID:       backroom.ExplorerID.Hex(),
		ResponderID:      backroom.ResponderID.Hex(),
		Transcript:       backroom.Transcript,
		Tags:             backroom.Tags,
		ConversationType: backroom.ConversationType,
		Topic:            backroom.Topic,
		Polls:            polls,
		CreatedAt:        backroom.CreatedAt,
	})
}

// BackroomDetailREST handles RESTful paths like /backrooms/ID
func (a *App) BackroomDetailREST(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/backrooms/")
	if path == "" || path == r.URL.Path {
		http.Error(w, "Backroom ID is required", http.StatusBadRequest)
		return
	}

	r.URL.RawQuery = "id=" + path
	a.BackroomDetail(w, r)
}

type ContinueBackroomRequest struct {
	BackroomID string `json:"backroom_id"`
	Topic      string `json:"topic,omitempty"`
	Rounds     int    `json:"rounds,omitempty"`
}

type ContinueBackroomResponse struct {
	BackroomID string `json:"backroom_id"`
	Addition   string `json:"addition"`
	Error      string `json:"error,omitempty"`
}

func (a *App) ContinueBackroom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ContinueBackroomRequest
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

	addition, err := a.continueBackroom(ctx, backroom, req.Topic, req.Rounds)
	if err != nil {
		log.Printf("[BACKROOM_CONTINUE_ERROR] backroom=%s: %v", req.BackroomID, err)
		writeGenerationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ContinueBackroomResponse{
		BackroomID: backroom.ID.Hex(),
		Addition:   addition,
	})
}

// continueBackroom resumes the persisted narrative snapshot, runs more
// rounds and appends the new turns to the transcript. Prior transcript
// content is never replaced.
func (a *App) continueBackroom(ctx context.Context, backroom *models.BackroomDocument, topic string, rounds int) (string, error) {
	explorer, err := db.GetAgentByID(ctx, backroom.ExplorerID.Hex())
	if err != nil {
		return "", err
	}
	responder, err := db.GetAgentByID(ctx, backroom.ResponderID.Hex())
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(topic) == "" {
		topic = backroom.Topic
	}
	if rounds <= 0 {
		rounds = config.GetBackroomRounds()
	}

	stage := narrative.NewStageFromState(a.Gen,
		backroom.ConversationType, topic,
		participantFromAgent(explorer), participantFromAgent(responder),
		narrative.StateFromDocument(backroom.NarrativeState))

	turns, err := stage.RunDialogue(ctx, rounds)
	if err != nil {
		return "", err
	}

	addition := "\n" + stage.RenderTranscript(turns)
	if err := db.AppendContinuation(ctx, backroom.ID, addition, stage.State().Document()); err != nil {
		return "", err
	}
	return addition, nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeGenerationError maps engine failures to user-visible responses.
// The taxonomy detail stays in the logs; users get a generic indication.
func writeGenerationError(w http.ResponseWriter, err error) {
	var parseErr *llm.ParseError
	if errors.As(err, &parseErr) {
		writeJSONError(w, http.StatusBadGateway, "Dialogue generation failed")
		return
	}
	writeJSONError(w, http.StatusInternalServerError, "Dialogue generation failed")
}
