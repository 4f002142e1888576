package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

const collectionPaymentOrders = "payment_orders"

type PaymentOrderRepository struct {
	col *mongo.Collection
}

func NewPaymentOrderRepository(db *mongo.Database) *PaymentOrderRepository {
	return &PaymentOrderRepository{col: db.Collection(collectionPaymentOrders)}
}

type paymentOrderDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OrderID   string             `bson:"order_id"`
	Student   primitive.ObjectID `bson:"student"`
	Course    primitive.ObjectID `bson:"course"`
	Amount    string             `bson:"amount"`
	Currency  string             `bson:"currency"`
	Status    string             `bson:"status"`
	PayerID   string             `bson:"payer_id,omitempty"`
	Provider  string             `bson:"provider_payload,omitempty"` // raw provider JSON
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *paymentOrderDoc) toDomain() *domain.PaymentOrder {
	o := &domain.PaymentOrder{
		OrderID:   d.OrderID,
		StudentID: d.Student.Hex(),
		CourseID:  d.Course.Hex(),
		Amount:    d.Amount,
		Currency:  d.Currency,
		Status:    domain.PaymentStatus(d.Status),
		PayerID:   d.PayerID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.Provider != "" {
		o.Provider = json.RawMessage(d.Provider)
	}
	return o
}

func (r *PaymentOrderRepository) Create(ctx context.Context, o *domain.PaymentOrder) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sid, ok := objectID(o.StudentID)
	if !ok {
		return domain.ErrUserNotFound
	}
	cid, ok := objectID(o.CourseID)
	if !ok {
		return domain.ErrCourseNotFound
	}

	_, err := r.col.InsertOne(ctx, paymentOrderDoc{
		OrderID:   o.OrderID,
		Student:   sid,
		Course:    cid,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Status:    string(o.Status),
		PayerID:   o.PayerID,
		Provider:  string(o.Provider),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert payment order: %w", err)
	}
	return nil
}

func (r *PaymentOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.PaymentOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc paymentOrderDoc
	if err := r.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPaymentOrderNotFound
		}
		return nil, fmt.Errorf("find payment order: %w", err)
	}
	return doc.toDomain(), nil
}

// Transition is a compare-and-set on the status field.
func (r *PaymentOrderRepository) Transition(ctx context.Context, orderID string, from, to domain.PaymentStatus, upd ports.PaymentOrderUpdate) (*domain.PaymentOrder, error) {
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, to)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": string(to), "updated_at": time.Now().UTC()}
	if upd.PayerID != "" {
		set["payer_id"] = upd.PayerID
	}
	if len(upd.Provider) > 0 {
		set["provider_payload"] = string(upd.Provider)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc paymentOrderDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"order_id": orderID, "status": string(from)}, bson.M{"$set": set}, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition payment order: %w", err)
	}

	n, cerr := r.col.CountDocuments(ctx, bson.M{"order_id": orderID}, options.Count().SetLimit(1))
	if cerr != nil {
		return nil, fmt.Errorf("transition payment order: %w", cerr)
	}
	if n == 0 {
		return nil, domain.ErrPaymentOrderNotFound
	}
	return nil, fmt.Errorf("%w: order %s is no longer %s", domain.ErrInvalidTransition, orderID, from)
}

// EnsureIndexes creates necessary indexes on the payment orders collection.
func (r *PaymentOrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student", Value: 1}, {Key: "course", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
