package profiles

import (
	"context"
	"errors"

	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding profiles.
const CollectionName = "profiles"

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a profiles repository backed by a MongoDB collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureMongoIndexes creates the unique uid index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_profiles_uid"),
	})
	return err
}

func (r *mongoRepository) FindByUID(ctx context.Context, uid string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"uid": uid})
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var profile models.Profile
	if err := r.coll.FindOne(ctx, filter).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *mongoRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *mongoRepository) Create(ctx context.Context, profile *models.Profile) error {
	if _, err := r.coll.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoRepository) Update(ctx context.Context, profile *models.Profile) error {
	result, err := r.coll.UpdateByID(ctx, profile.ID, bson.M{"$set": bson.M{
		"phone":       profile.Phone,
		"address":     profile.Address,
		"landmark":    profile.Landmark,
		"latitude":    profile.Latitude,
		"longitude":   profile.Longitude,
		"avatar":      profile.Avatar,
		"isCompleted": profile.IsCompleted,
		"updatedAt":   profile.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
