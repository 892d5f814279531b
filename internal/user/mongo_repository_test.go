// AngelaMos | 2026
// mongo_repository_test.go

package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/carterperez-dev/blog-api/internal/core"
)

func newMockMongo(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func userDoc(oid primitive.ObjectID, email string, version int, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "email", Value: email},
		{Key: "password_hash", Value: "hash"},
		{Key: "name", Value: "Ada"},
		{Key: "role", Value: "user"},
		{Key: "contact", Value: ""},
		{Key: "profile_image_key", Value: nil},
		{Key: "token_version", Value: version},
		{Key: "created_at", Value: primitive.NewDateTimeFromTime(created)},
		{Key: "updated_at", Value: primitive.NewDateTimeFromTime(created)},
	}
}

func usersNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + usersCollection
}

func TestMongoRepository_Create(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("stores a fresh record", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &User{ID: repo.NewID(), Email: "ada@example.com", Role: "user", TokenVersion: 7}
		require.NoError(mt, repo.Create(context.Background(), u))
		assert.Zero(mt, u.TokenVersion)
		assert.False(mt, u.CreatedAt.IsZero())
	})

	mt.Run("duplicate email is a conflict", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: blog.users index: users_email_key",
		}))

		err := repo.Create(context.Background(), &User{ID: repo.NewID(), Email: "ada@example.com"})
		assert.ErrorIs(mt, err, core.ErrDuplicateKey)
	})
}

func TestMongoRepository_GetByID(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("found", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		oid := primitive.NewObjectID()
		created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch,
			userDoc(oid, "ada@example.com", 2, created)))

		u, err := repo.GetByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), u.ID)
		assert.Equal(mt, "ada@example.com", u.Email)
		assert.Equal(mt, 2, u.TokenVersion)
		assert.True(mt, created.Equal(u.CreatedAt))
		assert.Nil(mt, u.ProfileImageKey)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, core.ErrNotFound)
	})

	mt.Run("malformed ids never reach the server", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		ctx := context.Background()

		_, err := repo.GetByID(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, core.ErrNotFound)
		assert.ErrorIs(mt, repo.Delete(ctx, "42"), core.ErrNotFound)
		assert.ErrorIs(mt, repo.IncrementTokenVersion(ctx, ""), core.ErrNotFound)
		assert.ErrorIs(mt, repo.Update(ctx, &User{ID: "nope"}, true), core.ErrNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestMongoRepository_Update(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("revoking edit bumps the version in the same write", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		u := &User{ID: primitive.NewObjectID().Hex(), Email: "ada@example.com", Role: "admin", TokenVersion: 3}
		require.NoError(mt, repo.Update(context.Background(), u, true))
		assert.Equal(mt, 4, u.TokenVersion)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		inc, err := evt.Command.LookupErr("updates", "0", "u", "$inc", "token_version")
		require.NoError(mt, err)
		var step int
		require.NoError(mt, inc.Unmarshal(&step))
		assert.Equal(mt, 1, step)
	})

	mt.Run("plain edit leaves the version alone", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		u := &User{ID: primitive.NewObjectID().Hex(), TokenVersion: 3}
		require.NoError(mt, repo.Update(context.Background(), u, false))
		assert.Equal(mt, 3, u.TokenVersion)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		_, err := evt.Command.LookupErr("updates", "0", "u", "$inc")
		assert.Error(mt, err)
	})

	mt.Run("no matching record", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Update(context.Background(), &User{ID: primitive.NewObjectID().Hex()}, false)
		assert.ErrorIs(mt, err, core.ErrNotFound)
	})

	mt.Run("email taken by another record", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Update(context.Background(), &User{ID: primitive.NewObjectID().Hex()}, false)
		assert.ErrorIs(mt, err, core.ErrDuplicateKey)
	})
}

func TestMongoRepository_Delete(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("removed", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("already gone", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, core.ErrNotFound)
	})
}

func TestMongoRepository_List(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("oldest first", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "ada@example.com", 0, first),
			userDoc(primitive.NewObjectID(), "bob@example.com", 0, first.Add(time.Hour)),
		))

		users, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "ada@example.com", users[0].Email)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		var sort bson.D
		require.NoError(mt, evt.Command.Lookup("sort").Unmarshal(&sort))
		require.Len(mt, sort, 1)
		assert.Equal(mt, "created_at", sort[0].Key)
		assert.EqualValues(mt, 1, sort[0].Value)
	})
}
