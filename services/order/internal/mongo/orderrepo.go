package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/bootheat/services/order/internal/order"
)

type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
	}
}

func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "visit_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "booth_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "items.food_id", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}
	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) ListByVisit(ctx context.Context, visitID int64) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"visit_id": visitID}, opts)
}

func (r *OrderRepo) ListByTable(ctx context.Context, tableID int64) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"table_id": tableID}, opts)
}

func (r *OrderRepo) ListByBoothBetween(ctx context.Context, boothID int64, from, to time.Time) ([]*order.Order, error) {
	filter := bson.M{
		"booth_id":   boothID,
		"created_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *OrderRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	filter := bson.M{
		"created_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "booth_id", Value: 1}, {Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *OrderRepo) ListByMenuItem(ctx context.Context, boothID, menuItemID int64) ([]*order.Order, error) {
	filter := bson.M{
		"booth_id":      boothID,
		"items.food_id": menuItemID,
	}
	return r.find(ctx, filter, options.Find())
}

func (r *OrderRepo) ExistsWithMenuItem(ctx context.Context, menuItemID int64) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"items.food_id": menuItemID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("cannot count orders by menu item: %w", err)
	}
	return count > 0, nil
}

func (r *OrderRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*order.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}

func (r *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("order %d: %w", o.ID, order.ErrNotFound)
	}

	return nil
}
