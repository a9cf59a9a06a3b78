package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

const collectionMessages = "messages"

// MessageRepository implements ports.MessageRepository using MongoDB.
type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages)}
}

// Create inserts a new message document.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if m.StarredBy == nil {
		m.StarredBy = []int64{}
	}
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return storeErr("insert message", err)
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m domain.Message
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, storeErr("find message", err)
	}
	return &m, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete message", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id int64) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"is_read": true}})
}

func (r *MessageRepository) ListForRecipient(ctx context.Context, recipientID int64) ([]*domain.Message, error) {
	return r.list(ctx, bson.M{"recipient_id": recipientID, "thread_id": bson.M{"$exists": false}})
}

func (r *MessageRepository) ListByThread(ctx context.Context, threadID int64) ([]*domain.Message, error) {
	return r.list(ctx, bson.M{"thread_id": threadID})
}

func (r *MessageRepository) ListShared(ctx context.Context, userID, contactID int64, types []domain.MediaType) ([]*domain.Message, error) {
	return r.list(ctx, bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userID, "recipient_id": contactID},
			bson.M{"sender_id": contactID, "recipient_id": userID},
		},
		"media_type": bson.M{"$in": types},
	})
}

func (r *MessageRepository) AddStar(ctx context.Context, id, userID int64) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"starred_by": userID}})
}

func (r *MessageRepository) RemoveStar(ctx context.Context, id, userID int64) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"starred_by": userID}})
}

// EnsureIndexes creates the indexes backing inbox, thread and shared listings.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "media_type", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MessageRepository) list(ctx context.Context, filter bson.M) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(newest))
	if err != nil {
		return nil, storeErr("list messages", err)
	}
	msgs, err := decodeAll[domain.Message](ctx, cur)
	if err != nil {
		return nil, storeErr("decode messages", err)
	}
	return msgs, nil
}

func (r *MessageRepository) update(ctx context.Context, id int64, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeErr("update message", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}
