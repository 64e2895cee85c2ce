package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backrooms/db/models"
)

// CreateAgent inserts a new agent and returns its ID
func CreateAgent(ctx context.Context, agent *models.AgentDocument) (primitive.ObjectID, error) {
	agent.CreatedAt = time.Now()
	agent.UpdatedAt = time.Now()
	if agent.Evolutions == nil {
		agent.Evolutions = []models.Evolution{}
	}
	if agent.PendingTweets == nil {
		agent.PendingTweets = []models.PendingTweet{}
	}
	if agent.PostedTweets == nil {
		agent.PostedTweets = []models.PostedTweet{}
	}

	collection := GetCollection("agents")
	result, err := collection.InsertOne(ctx, agent)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return result.InsertedID.(primitive.ObjectID), nil
}

// GetAgentByID fetches a single agent document
func GetAgentByID(ctx context.Context, agentID string) (*models.AgentDocument, error) {
	objID, err := primitive.ObjectIDFromHex(agentID)
	if err != nil {
		return nil, err
	}

	var agent models.AgentDocument
	collection := GetCollection("agents")
	if err := collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// ListAgents returns all agents, newest first
func ListAgents(ctx context.Context) ([]models.AgentDocument, error) {
	collection := GetCollection("agents")

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var agents []models.AgentDocument
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// PushEvolution appends an evolution summary to the agent's history
func PushEvolution(ctx context.Context, agentID primitive.ObjectID, evo models.Evolution) error {
	evo.CreatedAt = time.Now()

	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{
			"$push": bson.M{"evolutions": evo},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	return err
}

// PushPendingTweet appends a generated tweet awaiting user approval
func PushPendingTweet(ctx context.Context, agentID primitive.ObjectID, tweet models.PendingTweet) error {
	tweet.CreatedAt = time.Now()

	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{
			"$push": bson.M{"pending_tweets": tweet},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	return err
}

// RemovePendingTweet deletes one pending tweet by its uuid
func RemovePendingTweet(ctx context.Context, agentID primitive.ObjectID, tweetID string) error {
	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{
			"$pull": bson.M{"pending_tweets": bson.M{"id": tweetID}},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	return err
}

// PushPostedTweet appends a permalink to the agent's post history
func PushPostedTweet(ctx context.Context, agentID primitive.ObjectID, posted models.PostedTweet) error {
	posted.CreatedAt = time.Now()

	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{
			"$push": bson.M{"posted_tweets": posted},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	return err
}

// SetSocialToken durably stores a new OAuth token pair on the agent.
// Called after every successful refresh, before any retried post.
func SetSocialToken(ctx context.Context, agentID primitive.ObjectID, token *models.SocialToken) error {
	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{"$set": bson.M{
			"social_token": token,
			"updated_at":   time.Now(),
		}})
	return err
}

// SetAuthState stores the transient OAuth handshake state, replacing any
// previous one so at most one handshake is in flight per agent
func SetAuthState(ctx context.Context, agentID primitive.ObjectID, state *models.SocialAuthState) error {
	state.CreatedAt = time.Now()

	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{"$set": bson.M{
			"auth_state": state,
			"updated_at": time.Now(),
		}})
	return err
}

// ClearAuthState removes the handshake state after the token exchange
func ClearAuthState(ctx context.Context, agentID primitive.ObjectID) error {
	collection := GetCollection("agents")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{
			"$unset": bson.M{"auth_state": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		})
	return err
}

// GetAgentByAuthState looks up the agent holding a given CSRF state token,
// used by the OAuth callback to tie the code back to an agent
func GetAgentByAuthState(ctx context.Context, state string) (*models.AgentDocument, error) {
	var agent models.AgentDocument
	collection := GetCollection("agents")
	if err := collection.FindOne(ctx, bson.M{"auth_state.state": state}).Decode(&agent); err != nil {
		return nil, err
	}
	return &agent, nil
}
