package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AgentDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Traits        string             `bson:"traits"`
	Focus         string             `bson:"focus"`
	Evolutions    []Evolution        `bson:"evolutions"`
	PendingTweets []PendingTweet     `bson:"pending_tweets"`
	PostedTweets  []PostedTweet      `bson:"posted_tweets"`
	SocialToken   *SocialToken       `bson:"social_token,omitempty"`
	AuthState     *SocialAuthState   `bson:"auth_state,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// Evolution records how an agent's character shifted after one backroom.
// Entries are appended in creation order and never reordered.
type Evolution struct {
	BackroomID  primitive.ObjectID `bson:"backroom_id"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// PendingTweet is generated text waiting for the user to post it.
type PendingTweet struct {
	ID         string             `bson:"id"` // uuid
	Text       string             `bson:"text"`
	BackroomID primitive.ObjectID `bson:"backroom_id"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// PostedTweet is the post-history entry kept after a successful dispatch.
type PostedTweet struct {
	TweetID   string    `bson:"tweet_id"`
	URL       string    `bson:"url"`
	CreatedAt time.Time `bson:"created_at"`
}

// SocialToken holds the agent's X OAuth credentials. Either the whole
// struct is absent or both tokens are populated.
type SocialToken struct {
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token"`
	ExpiresAt    time.Time `bson:"expires_at"`
}

// SocialAuthState is the transient CSRF state + PKCE verifier held while
// an OAuth handshake is in flight. Cleared after the token exchange.
// At most one per agent.
type SocialAuthState struct {
	State     string    `bson:"state"`
	Verifier  string    `bson:"verifier"`
	CreatedAt time.Time `bson:"created_at"`
}
