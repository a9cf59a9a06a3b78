package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const collectionPersonnel = "personnel"

// PersonnelRepository implements ports.PersonnelRepository using MongoDB.
type PersonnelRepository struct {
	col *mongo.Collection
}

func NewPersonnelRepository(db *mongo.Database) *PersonnelRepository {
	return &PersonnelRepository{col: db.Collection(collectionPersonnel)}
}

type mongoPersonnel struct {
	ID               int64              `bson:"_id"`
	OfficialName     string             `bson:"official_name"`
	ServiceNumber    string             `bson:"service_number"`
	Email            string             `bson:"email,omitempty"`
	PhoneNumber      string             `bson:"phone_number"`
	PasswordHash     string             `bson:"password_hash,omitempty"`
	OTP              *domain.PendingOTP `bson:"otp,omitempty"`
	Rank             string             `bson:"rank,omitempty"`
	Role             string             `bson:"role"`
	PreferredContact string             `bson:"preferred_contact"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func toMongoPersonnel(p *domain.Personnel) mongoPersonnel {
	return mongoPersonnel{
		ID:               p.ID,
		OfficialName:     p.OfficialName,
		ServiceNumber:    p.ServiceNumber,
		Email:            p.Email,
		PhoneNumber:      p.PhoneNumber,
		PasswordHash:     p.PasswordHash,
		OTP:              p.OTP,
		Rank:             p.Rank,
		Role:             p.Role,
		PreferredContact: string(p.PreferredContact),
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
}

func (m *mongoPersonnel) toDomain() *domain.Personnel {
	return &domain.Personnel{
		ID:               m.ID,
		OfficialName:     m.OfficialName,
		ServiceNumber:    m.ServiceNumber,
		Email:            m.Email,
		PhoneNumber:      m.PhoneNumber,
		PasswordHash:     m.PasswordHash,
		OTP:              m.OTP,
		Rank:             m.Rank,
		Role:             m.Role,
		PreferredContact: domain.ContactChannel(m.PreferredContact),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *PersonnelRepository) Create(ctx context.Context, p *domain.Personnel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toMongoPersonnel(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return storeErr("insert personnel", err)
	}
	return nil
}

func (r *PersonnelRepository) FindByID(ctx context.Context, id int64) (*domain.Personnel, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PersonnelRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Personnel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr("find personnel", err)
	}
	docs, err := decodeAll[mongoPersonnel](ctx, cur)
	if err != nil {
		return nil, storeErr("decode personnel", err)
	}
	out := make([]*domain.Personnel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PersonnelRepository) FindByServiceNumber(ctx context.Context, serviceNumber string) (*domain.Personnel, error) {
	return r.findOne(ctx, bson.M{"service_number": serviceNumber})
}

func (r *PersonnelRepository) FindByEmail(ctx context.Context, email string) (*domain.Personnel, error) {
	if email == "" {
		return nil, domain.ErrPersonnelNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *PersonnelRepository) FindByPhoneAndServiceNumber(ctx context.Context, phoneNumber, serviceNumber string) (*domain.Personnel, error) {
	return r.findOne(ctx, bson.M{"phone_number": phoneNumber, "service_number": serviceNumber})
}

func (r *PersonnelRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}})
}

// SetOTP writes code and expiry as one subdocument, so a reader never sees
// one without the other.
func (r *PersonnelRepository) SetOTP(ctx context.Context, id int64, otp domain.PendingOTP) error {
	otp.ExpiresAt = otp.ExpiresAt.UTC()
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"otp": otp}})
}

func (r *PersonnelRepository) ClearOTP(ctx context.Context, id int64) error {
	return r.updateByID(ctx, id, bson.M{"$unset": bson.M{"otp": ""}})
}

// ConsumeOTP clears the code with a conditional update; of two concurrent
// callers with the same code only one sees a modified document.
func (r *PersonnelRepository) ConsumeOTP(ctx context.Context, id int64, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "otp.code": code},
		bson.M{"$unset": bson.M{"otp": ""}},
	)
	if err != nil {
		return false, storeErr("consume otp", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *PersonnelRepository) UpdateProfile(ctx context.Context, id int64, upd ports.ProfileUpdate) (*domain.Personnel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.PhoneNumber != nil {
		set["phone_number"] = *upd.PhoneNumber
	}
	if upd.Rank != nil {
		set["rank"] = *upd.Rank
	}
	if upd.PreferredContact != nil {
		set["preferred_contact"] = string(*upd.PreferredContact)
	}

	var doc mongoPersonnel
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPersonnelNotFound
		}
		return nil, storeErr("update profile", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the uniqueness constraints of the identity store.
// Email is unique only among records that have one.
func (r *PersonnelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "service_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "phone_number", Value: 1}, {Key: "service_number", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *PersonnelRepository) findOne(ctx context.Context, filter bson.M) (*domain.Personnel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoPersonnel
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPersonnelNotFound
		}
		return nil, storeErr("find personnel", err)
	}
	return doc.toDomain(), nil
}

func (r *PersonnelRepository) updateByID(ctx context.Context, id int64, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeErr("update personnel", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPersonnelNotFound
	}
	return nil
}
