package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BackroomDocument is one scripted two-party dialogue. The explorer and
// responder fields are references by ID; the narrative state and polls are
// owned by the document.
type BackroomDocument struct {
	ID               primitive.ObjectID     `bson:"_id,omitempty"`
	ExplorerID       primitive.ObjectID     `bson:"explorer_id"`
	ResponderID      primitive.ObjectID     `bson:"responder_id"`
	Transcript       string                 `bson:"transcript"`
	Preview          string                 `bson:"preview"`
	Tags             []string               `bson:"tags"`
	ConversationType string                 `bson:"conversation_type"`
	Topic            string                 `bson:"topic"`
	NarrativeState   NarrativeStateDocument `bson:"narrative_state"`
	Polls            []Poll                 `bson:"polls"`
	CreatedAt        time.Time              `bson:"created_at"`
}

// NarrativeStateDocument is the persisted snapshot of the dialogue engine's
// narrative state. It is restored verbatim when a conversation continues,
// so the schema is versioned: bump SchemaVersion on any layout change.
type NarrativeStateDocument struct {
	SchemaVersion int            `bson:"schema_version"`
	Stage         string         `bson:"stage"`
	Point         string         `bson:"point"`
	Focus         NarrativeFocus `bson:"focus"`
	Signals       []string       `bson:"signals"`
	History       []TurnDocument `bson:"history"`
}

// NarrativeFocus carries the current theme/tension pair. Both are free
// text on purpose; content is steered by prompts, not an enum.
type NarrativeFocus struct {
	Theme   string `bson:"theme"`
	Tension string `bson:"tension"`
}

// TurnDocument is one entry of the conversation history. Agent is the
// speaking role, "explorer" or "responder".
type TurnDocument struct {
	Agent    string `bson:"agent"`
	Response string `bson:"response"`
}

// Poll lets viewers vote on how a backroom continues. The winning option
// becomes the topic of the continuation.
type Poll struct {
	ID        string         `bson:"id"` // uuid
	Question  string         `bson:"question"`
	Options   []string       `bson:"options"`
	Votes     map[string]int `bson:"votes"`
	Status    string         `bson:"status"` // "open" or "resolved"
	ExpiresAt time.Time      `bson:"expires_at"`
	CreatedAt time.Time      `bson:"created_at"`
}

const (
	PollStatusOpen     = "open"
	PollStatusResolved = "resolved"
)
