package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backrooms/db/models"
	"backrooms/social"
)

// AgentTokenStore adapts the agent repository to the dispatcher's
// persistence contract.
type AgentTokenStore struct{}

func (AgentTokenStore) SaveTokens(ctx context.Context, agentID string, pair social.TokenPair) error {
	objID, err := primitive.ObjectIDFromHex(agentID)
	if err != nil {
		return err
	}
	return SetSocialToken(ctx, objID, &models.SocialToken{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}
