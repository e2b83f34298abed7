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

type TableRepo struct {
	collection *mongo.Collection
}

func NewTableRepo(db *mongo.Database) *TableRepo {
	return &TableRepo{
		collection: db.Collection("tables"),
	}
}

func (r *TableRepo) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "booth_id", Value: 1}, {Key: "table_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("cannot create booth table number index: %w", err)
	}
	return nil
}

func (r *TableRepo) Create(ctx context.Context, t *order.Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}

	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("table %d in booth %d: %w", t.TableNumber, t.BoothID, order.ErrDuplicate)
		}
		return fmt.Errorf("cannot create table: %w", err)
	}

	return nil
}

func (r *TableRepo) Get(ctx context.Context, id int64) (*order.Table, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *TableRepo) GetByNumber(ctx context.Context, boothID int64, number int) (*order.Table, error) {
	return r.findOne(ctx, bson.M{"booth_id": boothID, "table_number": number})
}

func (r *TableRepo) findOne(ctx context.Context, filter bson.M) (*order.Table, error) {
	var t order.Table
	err := r.collection.FindOne(ctx, filter).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	return &t, nil
}

func (r *TableRepo) ListByBooth(ctx context.Context, boothID int64) ([]*order.Table, error) {
	opts := options.Find().SetSort(bson.D{{Key: "table_number", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"booth_id": boothID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Table
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}

	return result, nil
}

func (r *TableRepo) Save(ctx context.Context, t *order.Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": t})
	if err != nil {
		return fmt.Errorf("cannot update table: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("table %d: %w", t.ID, order.ErrNotFound)
	}

	return nil
}
