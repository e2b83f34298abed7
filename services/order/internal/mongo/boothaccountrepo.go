package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/bootheat/services/order/internal/order"
)

// BoothAccountRepo stores accounts keyed by booth id, so the _id index is
// the only one needed.
type BoothAccountRepo struct {
	collection *mongo.Collection
}

func NewBoothAccountRepo(db *mongo.Database) *BoothAccountRepo {
	return &BoothAccountRepo{
		collection: db.Collection("booth_accounts"),
	}
}

func (r *BoothAccountRepo) Get(ctx context.Context, boothID int64) (*order.BoothAccount, error) {
	var a order.BoothAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": boothID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get booth account: %w", err)
	}
	return &a, nil
}

func (r *BoothAccountRepo) Upsert(ctx context.Context, a *order.BoothAccount) error {
	if a == nil {
		return fmt.Errorf("booth account is nil")
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": a.BoothID}, a, opts); err != nil {
		return fmt.Errorf("cannot save booth account: %w", err)
	}

	return nil
}
