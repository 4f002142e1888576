package mongo

import (
	"context"
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

const collectionCourses = "courses"

type CourseRepository struct {
	col *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{col: db.Collection(collectionCourses)}
}

type contentDoc struct {
	Title string `bson:"title"`
	Kind  string `bson:"type"`
	URL   string `bson:"url,omitempty"`
	Text  string `bson:"content,omitempty"`
}

type courseDoc struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"`
	Title            string               `bson:"title"`
	Description      string               `bson:"description"`
	Category         string               `bson:"category,omitempty"`
	Tags             []string             `bson:"tags"`
	Price            float64              `bson:"price"`
	Instructor       primitive.ObjectID   `bson:"instructor"`
	ImageURL         string               `bson:"image_url,omitempty"`
	Content          []contentDoc         `bson:"content"`
	EnrolledStudents []primitive.ObjectID `bson:"enrolled_students"`
	Ratings          []primitive.ObjectID `bson:"ratings"`
	AverageRating    float64              `bson:"average_rating"`
	RatingSum        int                  `bson:"rating_sum"`
	RatingCount      int                  `bson:"rating_count"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at"`
}

func toContentDocs(items []domain.ContentItem) []contentDoc {
	out := make([]contentDoc, 0, len(items))
	for _, it := range items {
		out = append(out, contentDoc{Title: it.Title, Kind: string(it.Kind), URL: it.URL, Text: it.Text})
	}
	return out
}

func (d *courseDoc) toDomain() *domain.Course {
	content := make([]domain.ContentItem, 0, len(d.Content))
	for _, it := range d.Content {
		content = append(content, domain.ContentItem{Title: it.Title, Kind: domain.ContentKind(it.Kind), URL: it.URL, Text: it.Text})
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Course{
		ID:               d.ID.Hex(),
		Title:            d.Title,
		Description:      d.Description,
		Category:         d.Category,
		Tags:             tags,
		Price:            d.Price,
		InstructorID:     hexOrEmpty(d.Instructor),
		ImageURL:         d.ImageURL,
		Content:          content,
		EnrolledStudents: hexIDs(d.EnrolledStudents),
		Ratings:          hexIDs(d.Ratings),
		AverageRating:    d.AverageRating,
		RatingSum:        d.RatingSum,
		RatingCount:      d.RatingCount,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

// Create inserts a new course document.
func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	instructor, ok := objectID(c.InstructorID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	doc := courseDoc{
		Title:            c.Title,
		Description:      c.Description,
		Category:         c.Category,
		Tags:             c.Tags,
		Price:            c.Price,
		Instructor:       instructor,
		ImageURL:         c.ImageURL,
		Content:          toContentDocs(c.Content),
		EnrolledStudents: objectIDs(c.EnrolledStudents),
		Ratings:          []primitive.ObjectID{},
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCourseNotFound
	}

	var doc courseDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns courses newest first.
func (r *CourseRepository) List(ctx context.Context, f ports.CourseFilter) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.InstructorID != "" {
		oid, ok := objectID(f.InstructorID)
		if !ok {
			return []*domain.Course{}, nil
		}
		filter["instructor"] = oid
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []courseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}

	out := make([]*domain.Course, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// patchSet builds the $set document for a partial update.
func patchSet(p ports.CoursePatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.ImageURL != nil {
		set["image_url"] = *p.ImageURL
	}
	if p.Content != nil {
		set["content"] = toContentDocs(*p.Content)
	}
	return set
}

func (r *CourseRepository) Update(ctx context.Context, id string, p ports.CoursePatch) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCourseNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc courseDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": patchSet(p, time.Now().UTC())}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, ok := objectID(id)
	if !ok {
		return domain.ErrCourseNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// AddStudent is the enrollment gate: the {$ne: student} filter and the $push
// are evaluated by the server as one document-level atomic operation, so
// concurrent requests for the same student can never both match.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID, studentID string) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cid, ok := objectID(courseID)
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	sid, ok := objectID(studentID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	filter := bson.M{"_id": cid, "enrolled_students": bson.M{"$ne": sid}}
	update := bson.M{
		"$push": bson.M{"enrolled_students": sid},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc courseDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("enroll student: %w", err)
	}

	// No match: either the course is gone or the student is already in.
	n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": cid}, options.Count().SetLimit(1))
	if cerr != nil {
		return nil, fmt.Errorf("enroll student: %w", cerr)
	}
	if n == 0 {
		return nil, domain.ErrCourseNotFound
	}
	return nil, domain.ErrAlreadyEnrolled
}

func (r *CourseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cid, ok := objectID(courseID)
	if !ok {
		return nil
	}
	sid, ok := objectID(studentID)
	if !ok {
		return nil
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": cid}, bson.M{
		"$pull": bson.M{"enrolled_students": sid},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("remove student: %w", err)
	}
	return nil
}

// ratingPipeline folds one score into the running sum and count and derives
// the average from the post-update values in a second stage.
func ratingPipeline(ratingID primitive.ObjectID, value int, now time.Time) mongo.Pipeline {
	ifNull := func(field string, fallback any) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{field, fallback}}}
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "rating_sum", Value: bson.D{{Key: "$add", Value: bson.A{ifNull("$rating_sum", 0), value}}}},
			{Key: "rating_count", Value: bson.D{{Key: "$add", Value: bson.A{ifNull("$rating_count", 0), 1}}}},
			{Key: "ratings", Value: bson.D{{Key: "$concatArrays", Value: bson.A{ifNull("$ratings", bson.A{}), bson.A{ratingID}}}}},
			{Key: "updated_at", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "average_rating", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$rating_count", 0}}},
				bson.D{{Key: "$divide", Value: bson.A{"$rating_sum", "$rating_count"}}},
				0,
			}}}},
		}}},
	}
}

func (r *CourseRepository) ApplyRating(ctx context.Context, courseID, ratingID string, value int) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cid, ok := objectID(courseID)
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	rid, ok := objectID(ratingID)
	if !ok {
		return nil, fmt.Errorf("apply rating: malformed rating id %q", ratingID)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc courseDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": cid}, ratingPipeline(rid, value, time.Now().UTC()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("apply rating: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates necessary indexes on the courses collection.
func (r *CourseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "instructor", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
