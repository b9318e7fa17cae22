package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoChangeSource avisa cada vez que la colección de órdenes cambia, usando
// change streams. Requiere replica set; en un mongod standalone Watch falla.
type MongoChangeSource struct {
	col *mongo.Collection
	log *zap.Logger
}

func NewMongoChangeSource(db *mongo.Database, log *zap.Logger) *MongoChangeSource {
	return &MongoChangeSource{col: db.Collection(ordersCollection), log: log}
}

func (s *MongoChangeSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	cs, err := s.col.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, persistenceErr("watch orders", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer cs.Close(context.Background())

		for cs.Next(ctx) {
			// Los snapshots son completos: alcanza con un aviso pendiente
			select {
			case out <- struct{}{}:
			default:
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			s.log.Error("order change stream stopped", zap.Error(err))
		}
	}()

	return out, nil
}
