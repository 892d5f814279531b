// AngelaMos | 2026
// mongo_repository.go

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carterperez-dev/blog-api/internal/core"
)

const usersCollection = "users"

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"password_hash"`
	Name            string             `bson:"name"`
	Role            string             `bson:"role"`
	Contact         string             `bson:"contact"`
	ProfileImageKey *string            `bson:"profile_image_key"`
	TokenVersion    int                `bson:"token_version"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d *userDocument) toUser() *User {
	return &User{
		ID:              d.ID.Hex(),
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		Name:            d.Name,
		Role:            d.Role,
		Contact:         d.Contact,
		ProfileImageKey: d.ProfileImageKey,
		TokenVersion:    d.TokenVersion,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		coll: db.Collection(usersCollection),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique email index. Inserts racing past the
// service pre-check are rejected by the store.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_key"),
		},
	)
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (r *mongoRepository) NewID() string {
	return primitive.NewObjectID().Hex()
}

func (r *mongoRepository) Create(ctx context.Context, user *User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		oid = primitive.NewObjectID()
		user.ID = oid.Hex()
	}

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.TokenVersion = 0

	doc := userDocument{
		ID:              oid,
		Email:           user.Email,
		PasswordHash:    user.PasswordHash,
		Name:            user.Name,
		Role:            user.Role,
		Contact:         user.Contact,
		ProfileImageKey: user.ProfileImageKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create user: %w", core.MapMongoError(err))
	}

	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	return r.findOne(ctx, bson.M{"_id": oid}, "get user")
}

func (r *mongoRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email}, "get user by email")
}

func (r *mongoRepository) findOne(
	ctx context.Context,
	filter bson.M,
	op string,
) (*User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.MapMongoError(err))
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) Update(ctx context.Context, user *User, revoke bool) error {
	now := r.now()

	update := bson.M{"$set": bson.M{
		"name":              user.Name,
		"email":             user.Email,
		"password_hash":     user.PasswordHash,
		"role":              user.Role,
		"contact":           user.Contact,
		"profile_image_key": user.ProfileImageKey,
		"updated_at":        now,
	}}
	if revoke {
		update["$inc"] = bson.M{"token_version": 1}
	}

	if err := r.updateOne(ctx, user.ID, update, "update user"); err != nil {
		return err
	}

	user.UpdatedAt = now
	if revoke {
		user.TokenVersion++
	}
	return nil
}

func (r *mongoRepository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    r.now(),
	}}, "update password")
}

func (r *mongoRepository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	return r.updateOne(ctx, id, bson.M{
		"$inc": bson.M{"token_version": 1},
		"$set": bson.M{"updated_at": r.now()},
	}, "increment token version")
}

func (r *mongoRepository) updateOne(
	ctx context.Context,
	id string,
	update bson.M,
	op string,
) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, core.MapMongoError(err))
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *mongoRepository) List(ctx context.Context) ([]User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toUser())
	}

	return users, nil
}

func (r *mongoRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (r *mongoRepository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	err := r.coll.FindOne(
		ctx,
		bson.M{"email": email},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return true, nil
}
