package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/serroba/lleria/internal/shortener"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

const (
	codeIndexName = "short_code_unique"
	urlIndexName  = "original_url_unique"
)

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type urlDocument struct {
	OriginalURL string    `bson:"original_url"`
	ShortCode   string    `bson:"short_code"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoStore is a MongoDB implementation of shortener.Store.
type MongoStore struct {
	cfg MongoConfig

	mu         sync.RWMutex
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a MongoDB-backed URL store. No connection is made until Connect.
func NewMongoStore(cfg MongoConfig) *MongoStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &MongoStore{cfg: cfg}
}

// Connect dials the server, pings it and ensures both unique indexes exist.
func (m *MongoStore) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := options.Client().
		ApplyURI(m.cfg.URI).
		SetServerSelectionTimeout(m.cfg.Timeout).
		SetConnectTimeout(m.cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return errors.Join(shortener.ErrUnavailable, fmt.Errorf("connect: %w", err))
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)

		return errors.Join(shortener.ErrUnavailable, fmt.Errorf("ping: %w", err))
	}

	collection := client.Database(m.cfg.Database).Collection(m.cfg.Collection)

	_, err = collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "short_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(codeIndexName),
		},
		{
			Keys:    bson.D{{Key: "original_url", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(urlIndexName),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		_ = client.Disconnect(ctx)

		return fmt.Errorf("create indexes: %w", classifyMongoError(err))
	}

	if m.client != nil {
		_ = m.client.Disconnect(ctx)
	}

	m.client = client
	m.collection = collection

	return nil
}

func (m *MongoStore) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	err := m.client.Disconnect(ctx)
	m.client = nil
	m.collection = nil

	return err
}

func (m *MongoStore) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.client != nil
}

// Ping checks the server is reachable.
func (m *MongoStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		return shortener.ErrUnavailable
	}

	return classifyMongoError(client.Ping(ctx, readpref.Primary()))
}

func (m *MongoStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	collection, err := m.urls()
	if err != nil {
		return err
	}

	_, err = collection.InsertOne(ctx, urlDocument{
		OriginalURL: shortURL.OriginalURL,
		ShortCode:   string(shortURL.Code),
		CreatedAt:   shortURL.CreatedAt,
	})

	return classifyMongoError(err)
}

func (m *MongoStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	return m.findOne(ctx, bson.M{"short_code": string(code)})
}

func (m *MongoStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	return m.findOne(ctx, bson.M{"original_url": originalURL})
}

func (m *MongoStore) List(ctx context.Context) ([]*shortener.ShortURL, error) {
	collection, err := m.urls()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classifyMongoError(err)
	}

	var docs []urlDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classifyMongoError(err)
	}

	urls := make([]*shortener.ShortURL, 0, len(docs))
	for _, doc := range docs {
		urls = append(urls, doc.toShortURL())
	}

	return urls, nil
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.M) (*shortener.ShortURL, error) {
	collection, err := m.urls()
	if err != nil {
		return nil, err
	}

	var doc urlDocument
	if err := collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shortener.ErrNotFound
		}

		return nil, classifyMongoError(err)
	}

	return doc.toShortURL(), nil
}

func (m *MongoStore) urls() (*mongo.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.collection == nil {
		return nil, shortener.ErrUnavailable
	}

	return m.collection, nil
}

func (d urlDocument) toShortURL() *shortener.ShortURL {
	return &shortener.ShortURL{
		Code:        shortener.Code(d.ShortCode),
		OriginalURL: d.OriginalURL,
		CreatedAt:   d.CreatedAt,
	}
}

// classifyMongoError maps driver errors onto the shortener sentinels.
func classifyMongoError(err error) error {
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), urlIndexName) {
			return fmt.Errorf("%w: %w", shortener.ErrDuplicateURL, err)
		}

		return fmt.Errorf("%w: %w", shortener.ErrDuplicateCode, err)
	}

	var selectionErr topology.ServerSelectionError
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.As(err, &selectionErr) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return errors.Join(shortener.ErrUnavailable, err)
	}

	return err
}

// Compile-time check.
var _ shortener.Store = (*MongoStore)(nil)
