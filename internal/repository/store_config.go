package repository

import (
	"context"
	"errors"
	"time"

	"restaurant-order-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const storeConfigID = "store"

// Un único documento con la configuración de la tienda.
type MongoStoreConfigRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStoreConfigRepository(db *mongo.Database) *MongoStoreConfigRepository {
	return &MongoStoreConfigRepository{col: db.Collection("store_config"), now: time.Now}
}

func (m *MongoStoreConfigRepository) Get(ctx context.Context) (*model.StoreConfig, error) {
	var cfg model.StoreConfig
	err := m.col.FindOne(ctx, bson.M{"_id": storeConfigID}).Decode(&cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("find store config", err)
	}
	return &cfg, nil
}

func (m *MongoStoreConfigRepository) Save(ctx context.Context, cfg *model.StoreConfig) error {
	cfg.UpdatedAt = m.now().UTC()

	opts := options.Update().SetUpsert(true)
	_, err := m.col.UpdateOne(ctx, bson.M{"_id": storeConfigID}, bson.M{"$set": cfg}, opts)
	if err != nil {
		return persistenceErr("save store config", err)
	}
	return nil
}
