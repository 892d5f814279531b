// AngelaMos | 2026
// mongo_repository.go

package post

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/blog-api/internal/core"
)

const postsCollection = "posts"

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	AuthorID  string             `bson:"author_id"`
	Tags      []string           `bson:"tags"`
	ImageKey  *string            `bson:"image_key"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *postDocument) toPost() *Post {
	tags := Tags(d.Tags)
	if tags == nil {
		tags = Tags{}
	}
	return &Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  d.AuthorID,
		Tags:      tags,
		ImageKey:  d.ImageKey,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		coll: db.Collection(postsCollection),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(postsCollection).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "author_id", Value: 1}},
				Options: options.Index().SetName("posts_author_id_idx"),
			},
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("posts_created_at_idx"),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("create posts indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) NewID() string {
	return primitive.NewObjectID().Hex()
}

func (r *mongoRepository) Create(ctx context.Context, post *Post) error {
	oid, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		oid = primitive.NewObjectID()
		post.ID = oid.Hex()
	}

	now := r.now()
	post.CreatedAt = now
	post.UpdatedAt = now

	doc := postDocument{
		ID:        oid,
		Title:     post.Title,
		Content:   post.Content,
		AuthorID:  post.AuthorID,
		Tags:      []string(post.Tags),
		ImageKey:  post.ImageKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create post: %w", core.MapMongoError(err))
	}

	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}

	var doc postDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("get post: %w", core.MapMongoError(err))
	}

	return doc.toPost(), nil
}

func (r *mongoRepository) List(ctx context.Context) ([]Post, error) {
	return r.find(ctx, bson.M{}, "list posts")
}

func (r *mongoRepository) ListByAuthor(
	ctx context.Context,
	authorID string,
) ([]Post, error) {
	return r.find(ctx, bson.M{"author_id": authorID}, "list posts by author")
}

func (r *mongoRepository) find(
	ctx context.Context,
	filter bson.M,
	op string,
) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	posts := make([]Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, *docs[i].toPost())
	}

	return posts, nil
}

func (r *mongoRepository) Update(ctx context.Context, post *Post) error {
	oid, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", core.ErrNotFound)
	}

	tags := []string(post.Tags)
	if tags == nil {
		tags = []string{}
	}

	now := r.now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":      post.Title,
		"content":    post.Content,
		"tags":       tags,
		"image_key":  post.ImageKey,
		"updated_at": now,
	}})
	if err != nil {
		return fmt.Errorf("update post: %w", core.MapMongoError(err))
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("update post: %w", core.ErrNotFound)
	}

	post.UpdatedAt = now
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}

	return nil
}

func (r *mongoRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}
