package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// opinionsDoc holds all reviews of one product in the opinions collection.
type opinionsDoc struct {
	ProductID string         `bson:"_id"`
	Reviews   []types.Review `bson:"reviews"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// MongoStore keeps reviews and summaries in two MongoDB collections,
// "opinions" and "products", both keyed by product id.
type MongoStore struct {
	client   *mongo.Client
	opinions *mongo.Collection
	products *mongo.Collection
	timeout  time.Duration
	logger   *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: err}
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "ping", Err: err}
	}

	db := client.Database(cfg.Database)
	return &MongoStore{
		client:   client,
		opinions: db.Collection("opinions"),
		products: db.Collection("products"),
		timeout:  timeout,
		logger:   logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) SaveReviews(ctx context.Context, productID string, reviews []types.Review) error {
	if err := checkID(productID); err != nil {
		return err
	}
	if reviews == nil {
		reviews = []types.Review{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := opinionsDoc{ProductID: productID, Reviews: reviews, UpdatedAt: time.Now().UTC()}
	_, err := s.opinions.ReplaceOne(ctx, bson.M{"_id": productID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "save reviews", Err: err}
	}

	s.logger.Debug("reviews stored in mongodb", "product_id", productID, "count", len(reviews))
	return nil
}

func (s *MongoStore) LoadReviews(ctx context.Context, productID string) ([]types.Review, error) {
	if err := checkID(productID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc opinionsDoc
	if err := s.opinions.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc); err != nil {
		return nil, s.loadError(productID, "load reviews", err)
	}
	if doc.Reviews == nil {
		doc.Reviews = []types.Review{}
	}
	for i := range doc.Reviews {
		if doc.Reviews[i].Pros == nil {
			doc.Reviews[i].Pros = []string{}
		}
		if doc.Reviews[i].Cons == nil {
			doc.Reviews[i].Cons = []string{}
		}
	}
	return doc.Reviews, nil
}

func (s *MongoStore) SaveProduct(ctx context.Context, product *types.Product) error {
	if err := checkID(product.ID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.products.ReplaceOne(ctx, bson.M{"_id": product.ID}, product, options.Replace().SetUpsert(true))
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "save product", Err: err}
	}
	return nil
}

func (s *MongoStore) LoadProduct(ctx context.Context, productID string) (*types.Product, error) {
	if err := checkID(productID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var product types.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		return nil, s.loadError(productID, "load product", err)
	}
	return &product, nil
}

func (s *MongoStore) ListProducts(ctx context.Context) ([]*types.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.products.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "list products", Err: err}
	}

	products := make([]*types.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "list products", Err: err}
	}
	return products, nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) loadError(productID, op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", types.ErrNotStored, productID)
	}
	return &types.StorageError{Backend: "mongodb", Op: op, Err: err}
}
