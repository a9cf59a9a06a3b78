package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

const collectionThreads = "threads"

// ThreadRepository implements ports.ThreadRepository using MongoDB.
type ThreadRepository struct {
	col *mongo.Collection
}

func NewThreadRepository(db *mongo.Database) *ThreadRepository {
	return &ThreadRepository{col: db.Collection(collectionThreads)}
}

func (r *ThreadRepository) Create(ctx context.Context, t *domain.Thread) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return storeErr("insert thread", err)
	}
	return nil
}

func (r *ThreadRepository) FindByID(ctx context.Context, id int64) (*domain.Thread, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Thread
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, storeErr("find thread", err)
	}
	return &t, nil
}

func (r *ThreadRepository) ListForParticipant(ctx context.Context, userID int64) ([]*domain.Thread, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, storeErr("list threads", err)
	}
	out, err := decodeAll[domain.Thread](ctx, cur)
	if err != nil {
		return nil, storeErr("decode threads", err)
	}
	return out, nil
}

// AddParticipant matches on the actor's membership so a concurrent removal
// of the actor wins.
func (r *ThreadRepository) AddParticipant(ctx context.Context, threadID, actorID, targetID int64) (bool, error) {
	return r.conditional(ctx,
		bson.M{"_id": threadID, "participants": actorID},
		bson.M{"$addToSet": bson.M{"participants": targetID}},
	)
}

// RemoveParticipant also requires a second element so the set never empties.
func (r *ThreadRepository) RemoveParticipant(ctx context.Context, threadID, actorID, targetID int64) (bool, error) {
	return r.conditional(ctx,
		bson.M{"_id": threadID, "participants": actorID, "participants.1": bson.M{"$exists": true}},
		bson.M{"$pull": bson.M{"participants": targetID}},
	)
}

func (r *ThreadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "participants", Value: 1}}})
	return err
}

func (r *ThreadRepository) conditional(ctx context.Context, filter, update bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, storeErr("update thread", err)
	}
	return res.MatchedCount == 1, nil
}
