package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoURL     = "mongodb://localhost:27017"
	defaultDatabaseName = "bootheat"
	defaultDialTimeout  = 10 * time.Second
	defaultMaxPoolSize  = 50
)

// BaseRepo owns the client shared by the order service collections: tables,
// visits, orders, menu items, counters and booth accounts.
type BaseRepo struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

func NewBaseRepo(config *apt.Config, logger apt.Logger) *BaseRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BaseRepo{
		logger: logger,
		config: config,
	}
}

// Start reads db.mongo.url, db.mongo.name, db.mongo.timeout and
// db.mongo.max_pool, then connects and pings before any repository is
// built on top of it.
func (r *BaseRepo) Start(ctx context.Context) error {
	url := r.config.GetStringOrDef("db.mongo.url", defaultMongoURL)
	name := r.config.GetStringOrDef("db.mongo.name", defaultDatabaseName)
	timeout := r.config.GetDurationOrDef("db.mongo.timeout", defaultDialTimeout)
	poolSize := r.config.GetIntOrDef("db.mongo.max_pool", defaultMaxPoolSize)
	if poolSize <= 0 {
		poolSize = defaultMaxPoolSize
	}

	opts := options.Client().ApplyURI(url).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetMaxPoolSize(uint64(poolSize))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(name)

	// Hosts only: the URL may carry credentials.
	r.logger.Info("Connected to MongoDB", "hosts", strings.Join(opts.Hosts, ","), "database", name)
	return nil
}

func (r *BaseRepo) Stop(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	r.logger.Info("Disconnected from MongoDB")
	return nil
}

// Database is nil until Start succeeds.
func (r *BaseRepo) Database() *mongo.Database {
	return r.db
}

// indexer is implemented by collection repositories that need more than
// the _id index.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes each repository declares, among them the
// unique guards on table number, open visit and menu name.
func (r *BaseRepo) EnsureIndexes(ctx context.Context, repos ...indexer) error {
	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	r.logger.Info("MongoDB indexes ensured", "repositories", len(repos))
	return nil
}
