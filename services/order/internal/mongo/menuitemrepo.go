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

// MenuItemRepo implements order.MenuItemRepo using MongoDB
type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{
		collection: db.Collection("menu_items"),
	}
}

func (r *MenuItemRepo) EnsureIndexes(ctx context.Context) error {
	// Create unique index on booth and name
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "booth_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("cannot create booth menu name index: %w", err)
	}

	categoryIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, categoryIndexModel); err != nil {
		return fmt.Errorf("cannot create category index: %w", err)
	}

	return nil
}

func (r *MenuItemRepo) Create(ctx context.Context, item *order.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item cannot be nil")
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("menu item %s: %w", item.Name, order.ErrDuplicate)
		}
		return fmt.Errorf("could not create menu item: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id int64) (*order.MenuItem, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MenuItemRepo) GetByName(ctx context.Context, boothID int64, name string) (*order.MenuItem, error) {
	return r.findOne(ctx, bson.M{"booth_id": boothID, "name": name})
}

func (r *MenuItemRepo) findOne(ctx context.Context, filter bson.M) (*order.MenuItem, error) {
	var item order.MenuItem
	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) ListByBooth(ctx context.Context, boothID int64) ([]*order.MenuItem, error) {
	return r.list(ctx, bson.M{"booth_id": boothID})
}

func (r *MenuItemRepo) ListAvailableByBooth(ctx context.Context, boothID int64) ([]*order.MenuItem, error) {
	return r.list(ctx, bson.M{"booth_id": boothID, "available": true})
}

func (r *MenuItemRepo) list(ctx context.Context, filter bson.M) ([]*order.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("could not list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*order.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("could not decode menu items: %w", err)
	}

	return items, nil
}

func (r *MenuItemRepo) Save(ctx context.Context, item *order.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item cannot be nil")
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": item.ID}, bson.M{"$set": item})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("menu item %s: %w", item.Name, order.ErrDuplicate)
		}
		return fmt.Errorf("could not update menu item: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("menu item %d: %w", item.ID, order.ErrNotFound)
	}

	return nil
}

func (r *MenuItemRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("could not delete menu item: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("menu item %d: %w", id, order.ErrNotFound)
	}

	return nil
}
