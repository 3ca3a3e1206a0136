package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

// reflectionDoc is the MongoDB document shape.
type reflectionDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	Email        string             `bson:"email"`
	Neighborhood string             `bson:"neighborhood"`
	Reflection   string             `bson:"reflection"`
	Title        *string            `bson:"title"`
	PhotoURL     *string            `bson:"photo_url"`
	Featured     bool               `bson:"featured"`
}

func (d reflectionDoc) model() models.Reflection {
	return models.Reflection{
		ID:           d.ID.Hex(),
		CreatedAt:    d.CreatedAt,
		Email:        d.Email,
		Neighborhood: d.Neighborhood,
		Reflection:   d.Reflection,
		Title:        d.Title,
		PhotoURL:     d.PhotoURL,
		Featured:     d.Featured,
	}
}

// MongoStore implements RecordStore on a MongoDB collection.
// Documents without a featured field simply never match FeaturedOnly.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(Table), now: time.Now}
}

func (s *MongoStore) Insert(ctx context.Context, r *models.Reflection) error {
	doc := reflectionDoc{
		ID:           primitive.NewObjectID(),
		CreatedAt:    r.CreatedAt,
		Email:        r.Email,
		Neighborhood: r.Neighborhood,
		Reflection:   r.Reflection,
		Title:        r.Title,
		PhotoURL:     r.PhotoURL,
		Featured:     r.Featured,
	}
	if doc.CreatedAt.IsZero() {
		// BSON dates carry millisecond precision.
		doc.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return mongoError("insert", err)
	}

	r.ID = doc.ID.Hex()
	r.CreatedAt = doc.CreatedAt
	return nil
}

func (s *MongoStore) List(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.coll.Find(ctx, listFilter(f), findOptions)
	if err != nil {
		return nil, mongoError("list", err)
	}
	defer cursor.Close(ctx)

	var docs []reflectionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoError("list", err)
	}

	out := make([]models.Reflection, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mongoError("count", err)
	}
	return n, nil
}

func listFilter(f models.ReflectionFilter) bson.M {
	filter := bson.M{}
	if f.FeaturedOnly {
		filter["featured"] = true
	}
	if f.Neighborhood != "" {
		filter["neighborhood"] = f.Neighborhood
	}
	return filter
}

// mongoError keeps server-side write/command messages and hides transport errors.
func mongoError(op string, err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) && len(we.WriteErrors) > 0 {
		return &QueryError{Op: op, Detail: we.WriteErrors[0].Message, Err: err}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return &QueryError{Op: op, Detail: ce.Message, Err: err}
	}
	return &QueryError{Op: op, Err: err}
}
