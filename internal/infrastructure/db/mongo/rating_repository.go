package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

const collectionRatings = "ratings"

type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{col: db.Collection(collectionRatings)}
}

type ratingDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Value     int                `bson:"rating"`
	Comment   string             `bson:"comment,omitempty"`
	User      primitive.ObjectID `bson:"user"`
	Course    primitive.ObjectID `bson:"course"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *ratingDoc) toDomain() *domain.Rating {
	return &domain.Rating{
		ID:        d.ID.Hex(),
		Value:     d.Value,
		Comment:   d.Comment,
		UserID:    d.User.Hex(),
		CourseID:  d.Course.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Create inserts a rating. The unique (user, course) index turns a second
// rating by the same user into ErrDuplicateRating.
func (r *RatingRepository) Create(ctx context.Context, rt *domain.Rating) (*domain.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	uid, ok := objectID(rt.UserID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cid, ok := objectID(rt.CourseID)
	if !ok {
		return nil, domain.ErrCourseNotFound
	}

	doc := ratingDoc{Value: rt.Value, Comment: rt.Comment, User: uid, Course: cid, CreatedAt: rt.CreatedAt}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRating
		}
		return nil, fmt.Errorf("insert rating: %w", err)
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, ok := objectID(id)
	if !ok {
		return domain.ErrRatingNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRatingNotFound
	}
	return nil
}

func (r *RatingRepository) ListByCourse(ctx context.Context, courseID string) ([]*domain.Rating, error) {
	cid, ok := objectID(courseID)
	if !ok {
		return []*domain.Rating{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"course": cid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []ratingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	out := make([]*domain.Rating, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *RatingRepository) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	cid, ok := objectID(courseID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"course": cid})
	if err != nil {
		return 0, fmt.Errorf("delete ratings: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates necessary indexes on the ratings collection.
func (r *RatingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "course", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "course", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
