package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/bootheat/pkg/enums/visitstatus"
	"github.com/appetiteclub/bootheat/services/order/internal/order"
)

type VisitRepo struct {
	collection *mongo.Collection
}

func NewVisitRepo(db *mongo.Database) *VisitRepo {
	return &VisitRepo{
		collection: db.Collection("visits"),
	}
}

// EnsureIndexes creates the partial unique index that allows a single OPEN
// visit per table.
func (r *VisitRepo) EnsureIndexes(ctx context.Context) error {
	openIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "table_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("one_open_visit_per_table").
			SetPartialFilterExpression(bson.M{"status": visitstatus.Open}),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, openIndexModel); err != nil {
		return fmt.Errorf("cannot create open visit index: %w", err)
	}

	tableIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "visit_no", Value: -1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, tableIndexModel); err != nil {
		return fmt.Errorf("cannot create visit number index: %w", err)
	}

	return nil
}

func (r *VisitRepo) Create(ctx context.Context, v *order.Visit) error {
	if v == nil {
		return fmt.Errorf("visit is nil")
	}

	if _, err := r.collection.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("open visit for table %d: %w", v.TableID, order.ErrDuplicate)
		}
		return fmt.Errorf("cannot create visit: %w", err)
	}

	return nil
}

func (r *VisitRepo) Get(ctx context.Context, id int64) (*order.Visit, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *VisitRepo) FindOpen(ctx context.Context, tableID int64) (*order.Visit, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})
	return r.findOne(ctx, bson.M{"table_id": tableID, "status": visitstatus.Open}, opts)
}

func (r *VisitRepo) LastVisitNo(ctx context.Context, tableID int64) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "visit_no", Value: -1}})
	v, err := r.findOne(ctx, bson.M{"table_id": tableID}, opts)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return v.VisitNo, nil
}

func (r *VisitRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*order.Visit, error) {
	var v order.Visit

	var err error
	if opts != nil {
		err = r.collection.FindOne(ctx, filter, opts).Decode(&v)
	} else {
		err = r.collection.FindOne(ctx, filter).Decode(&v)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get visit: %w", err)
	}
	return &v, nil
}

func (r *VisitRepo) ListClosedBetween(ctx context.Context, from, to time.Time) ([]*order.Visit, error) {
	filter := bson.M{
		"status":    visitstatus.Closed,
		"closed_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "closed_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list closed visits: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Visit
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode visits: %w", err)
	}

	return result, nil
}

func (r *VisitRepo) Save(ctx context.Context, v *order.Visit) error {
	if v == nil {
		return fmt.Errorf("visit is nil")
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$set": v})
	if err != nil {
		return fmt.Errorf("cannot update visit: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("visit %d: %w", v.ID, order.ErrNotFound)
	}

	return nil
}
