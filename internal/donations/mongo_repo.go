package donations

import (
	"context"
	"errors"

	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	"github.com/foodlink/foodlink-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding donations.
const CollectionName = "donations"

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a donations repository backed by a MongoDB collection.
// Timestamps are stored with millisecond precision.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureMongoIndexes creates the listing and filter indexes.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("idx_donations_created_at")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("idx_donations_status")},
		{Keys: bson.D{{Key: "donorId", Value: 1}}, Options: options.Index().SetName("idx_donations_donor_id")},
		{Keys: bson.D{{Key: "acceptedById", Value: 1}}, Options: options.Index().SetName("idx_donations_accepted_by_id")},
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if _, err := r.coll.InsertOne(ctx, donation); err != nil {
		return nil, err
	}
	return donation, nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&donation); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (r *mongoRepository) List(ctx context.Context, filter ListFilter) ([]models.Donation, *pagination.Cursor, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.DonorID != "" {
		query["donorId"] = filter.DonorID
	}
	if filter.AcceptedByID != "" {
		query["acceptedById"] = filter.AcceptedByID
	}
	if c := filter.Cursor; c != nil {
		query["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": c.CreatedAt}},
			bson.M{"createdAt": c.CreatedAt, "_id": bson.M{"$lt": c.ID}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	limit := pagination.NormalizeLimit(filter.Limit)
	if limit > 0 {
		opts.SetLimit(int64(pagination.LimitWithBuffer(limit)))
	}

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, nil, err
	}
	var rows []models.Donation
	if err := cur.All(ctx, &rows); err != nil {
		return nil, nil, err
	}
	rows, next := trimPage(rows, limit)
	return rows, next, nil
}

func (r *mongoRepository) Transition(ctx context.Context, id string, from enums.DonationStatus, guard TransitionGuard, update TransitionUpdate) (*models.Donation, error) {
	filter := bson.M{"_id": id, "status": from}
	if guard.AcceptedByID != "" {
		filter["acceptedById"] = guard.AcceptedByID
	}
	set := bson.M{}
	for _, f := range update.fields() {
		set[f.bson] = f.value
	}

	var updated models.Donation
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return current, ErrStatusMismatch
}
