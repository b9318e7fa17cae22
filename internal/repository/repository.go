package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"restaurant-order-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("orden no encontrada")
	ErrPersistence    = errors.New("store no disponible")
	ErrStatusConflict = errors.New("el estado de la orden cambió concurrentemente")
	ErrDuplicateOrder = errors.New("la orden ya existe")
)

const ordersCollection = "orders"

// Mongo implementation
type MongoOrderRepository struct {
	col   *mongo.Collection
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewMongoOrderRepository(db *mongo.Database, log *zap.Logger) *MongoOrderRepository {
	return &MongoOrderRepository{
		col:   db.Collection(ordersCollection),
		log:   log,
		now:   time.Now,
		newID: GenerateOrderID,
	}
}

// GenerateOrderID devuelve "ORD-" + número aleatorio en [100000, 999999].
// No se verifican colisiones.
func GenerateOrderID() string {
	return fmt.Sprintf("ORD-%d", 100000+rand.IntN(900000))
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// EnsureIndexes crea los índices únicos por order_id y por payment_intent_id
// (solo órdenes con tarjeta) y el índice por email.
func (m *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{
			Keys: bson.D{{Key: "payment_intent_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"payment_intent_id": bson.M{"$type": "string"}}),
		},
	})
	if err != nil {
		return persistenceErr("create indexes", err)
	}
	return nil
}

// Create asigna orderId y createdAt, guarda el primer registro del historial
// y persiste la orden. El resto de los campos vienen completos del checkout.
func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) (string, error) {
	now := m.now().UTC()

	o.OrderID = m.newID()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.History = []model.StatusRecord{
		{
			To:        o.Status,
			Actor:     o.UserID,
			Timestamp: now,
		},
	}

	if _, err := m.col.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("insert order: %w: %w", ErrDuplicateOrder, err)
		}
		return "", persistenceErr("insert order", err)
	}
	return o.OrderID, nil
}

func (m *MongoOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("find order", err)
	}
	return &res, nil
}

// UpdateStatus reescribe solo status/updated_at y agrega el registro al historial.
// La escritura es condicional: si el estado ya no es `expected` devuelve
// ErrStatusConflict. Si la orden no existe lo loguea y devuelve ErrNotFound.
func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, orderID string, expected, status model.Status, record model.StatusRecord) error {
	filter := bson.M{
		"order_id": orderID,
		"status":   expected,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": m.now().UTC(),
		},
		"$push": bson.M{
			"history": record,
		},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceErr("update status", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No matcheó: o no existe, o alguien cambió el estado antes
	err = m.col.FindOne(ctx, bson.M{"order_id": orderID},
		options.FindOne().SetProjection(bson.M{"status": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		m.log.Warn("status update on unknown order", zap.String("order_id", orderID), zap.String("status", string(status)))
		return ErrNotFound
	}
	if err != nil {
		return persistenceErr("find order", err)
	}
	return ErrStatusConflict
}

// GetByPaymentIntentID busca la orden creada con un intent de pago.
func (m *MongoOrderRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("find order by payment intent", err)
	}
	return &res, nil
}

func (m *MongoOrderRepository) GetAll(ctx context.Context) ([]model.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoOrderRepository) GetByStatus(ctx context.Context, status model.Status) ([]model.Order, error) {
	return m.find(ctx, bson.M{"status": status})
}

// GetByUserEmail compara el email exacto (case-sensitive).
func (m *MongoOrderRepository) GetByUserEmail(ctx context.Context, email string) ([]model.Order, error) {
	return m.find(ctx, bson.M{"email": email})
}

func (m *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, persistenceErr("find orders", err)
	}
	defer cur.Close(ctx)

	out := []model.Order{}
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, persistenceErr("decode order", err)
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, persistenceErr("iterate orders", err)
	}
	return out, nil
}
