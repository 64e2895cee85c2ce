package db

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backrooms/db/models"
)

// CreateBackroom inserts a finished dialogue and returns its ID
func CreateBackroom(ctx context.Context, backroom *models.BackroomDocument) (primitive.ObjectID, error) {
	backroom.CreatedAt = time.Now()
	if backroom.Tags == nil {
		backroom.Tags = []string{}
	}
	if backroom.Polls == nil {
		backroom.Polls = []models.Poll{}
	}

	collection := GetCollection("backrooms")
	result, err := collection.InsertOne(ctx, backroom)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return result.InsertedID.(primitive.ObjectID), nil
}

// GetBackroomByID fetches a single backroom document
func GetBackroomByID(ctx context.Context, backroomID string) (*models.BackroomDocument, error) {
	objID, err := primitive.ObjectIDFromHex(backroomID)
	if err != nil {
		return nil, err
	}

	var backroom models.BackroomDocument
	collection := GetCollection("backrooms")
	if err := collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&backroom); err != nil {
		return nil, err
	}
	return &backroom, nil
}

// ListBackrooms returns paginated backrooms, newest first
func ListBackrooms(ctx context.Context, limit, offset int) ([]models.BackroomDocument, int64, error) {
	collection := GetCollection("backrooms")

	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var backrooms []models.BackroomDocument
	if err := cursor.All(ctx, &backrooms); err != nil {
		return nil, 0, err
	}

	return backrooms, total, nil
}

// AppendContinuation concatenates new transcript content onto the existing
// transcript and replaces the narrative snapshot. The transcript is
// append-only once a continuation occurs: prior content is never replaced.
func AppendContinuation(ctx context.Context, backroomID primitive.ObjectID, addition string, state models.NarrativeStateDocument) error {
	collection := GetCollection("backrooms")

	// Pipeline update so the concat happens server-side in one write.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"transcript":      bson.M{"$concat": bson.A{"$transcript", addition}},
			"narrative_state": state,
		}}},
	}
	_, err := collection.UpdateOne(ctx, bson.M{"_id": backroomID}, pipeline)
	return err
}

// AddPoll appends a poll to a backroom
func AddPoll(ctx context.Context, backroomID primitive.ObjectID, poll models.Poll) error {
	poll.CreatedAt = time.Now()
	if poll.Votes == nil {
		poll.Votes = map[string]int{}
	}

	collection := GetCollection("backrooms")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": backroomID},
		bson.M{"$push": bson.M{"polls": poll}})
	return err
}

// VotePoll increments the tally for one option of an open poll
func VotePoll(ctx context.Context, backroomID primitive.ObjectID, pollID, option string) error {
	collection := GetCollection("backrooms")

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"p.id": pollID, "p.status": models.PollStatusOpen}},
	})
	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": backroomID},
		bson.M{"$inc": bson.M{"polls.$[p].votes." + option: 1}},
		opts)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ResolvePoll marks a poll resolved
func ResolvePoll(ctx context.Context, backroomID primitive.ObjectID, pollID string) error {
	collection := GetCollection("backrooms")

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"p.id": pollID}},
	})
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": backroomID},
		bson.M{"$set": bson.M{"polls.$[p].status": models.PollStatusResolved}},
		opts)
	return err
}

// CreateBackroomIndexes creates necessary indexes for performance
func CreateBackroomIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backroomIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "explorer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "responder_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	collection := GetCollection("backrooms")
	_, err := collection.Indexes().CreateMany(ctx, backroomIndexes)
	if err != nil {
		log.Printf("Failed to create indexes: %v", err)
	}

	agentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "auth_state.state", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err = GetCollection("agents").Indexes().CreateMany(ctx, agentIndexes)
	if err != nil {
		log.Printf("Failed to create agent indexes: %v", err)
	}
}
