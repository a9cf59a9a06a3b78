package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

const collectionReactions = "reactions"

// ReactionRepository implements ports.ReactionRepository using MongoDB.
// A unique (message_id, user_id) index keeps one reaction per user.
type ReactionRepository struct {
	col *mongo.Collection
}

func NewReactionRepository(db *mongo.Database) *ReactionRepository {
	return &ReactionRepository{col: db.Collection(collectionReactions)}
}

// Upsert sets the caller's reaction. The id is only written on insert so an
// existing reaction keeps its identity.
func (r *ReactionRepository) Upsert(ctx context.Context, rc *domain.Reaction) (*domain.Reaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"message_id": rc.MessageID, "user_id": rc.UserID}
	update := bson.M{
		"$set":         bson.M{"reaction_type": rc.ReactionType, "timestamp": rc.Timestamp.UTC()},
		"$setOnInsert": bson.M{"_id": rc.ID},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out domain.Reaction
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// Two first reactions raced on the unique index; the loser now updates.
		err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	}
	if err != nil {
		return nil, storeErr("upsert reaction", err)
	}
	return &out, nil
}

func (r *ReactionRepository) ListByMessage(ctx context.Context, messageID int64) ([]*domain.Reaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"message_id": messageID}, options.Find().SetSort(newest))
	if err != nil {
		return nil, storeErr("list reactions", err)
	}
	out, err := decodeAll[domain.Reaction](ctx, cur)
	if err != nil {
		return nil, storeErr("decode reactions", err)
	}
	return out, nil
}

func (r *ReactionRepository) DeleteByMessage(ctx context.Context, messageID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"message_id": messageID}); err != nil {
		return storeErr("delete reactions", err)
	}
	return nil
}

func (r *ReactionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

