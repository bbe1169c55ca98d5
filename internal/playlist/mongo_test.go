package playlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	oid := primitive.NewObjectID()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create assigns id and timestamp", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		store.now = func() time.Time { return created.Add(123456 * time.Nanosecond) }
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		pl, err := store.Create(ctx, Playlist{OwnerID: "u1", Title: "Road trip"})

		require.NoError(mt, err)
		assert.Len(mt, pl.ID, 24)
		assert.Equal(mt, "u1", pl.OwnerID)
		assert.Equal(mt, []Track{}, pl.Tracks)
		assert.Equal(mt, created, pl.CreatedAt)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
	})

	mt.Run("create write error", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))

		_, err := store.Create(ctx, Playlist{OwnerID: "u1", Title: "x"})

		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "insert playlist")
	})

	mt.Run("list by owner", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: oid},
				{Key: "ownerId", Value: "u1"},
				{Key: "title", Value: "Road trip"},
				{Key: "tracks", Value: bson.A{bson.D{{Key: "songId", Value: "s1"}, {Key: "durationSeconds", Value: 67}}}},
				{Key: "createdAt", Value: created},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "ownerId", Value: "u1"},
				{Key: "title", Value: "Focus"},
				{Key: "tracks", Value: bson.A{}},
				{Key: "createdAt", Value: created},
			},
		))

		got, err := store.ListByOwner(ctx, "u1")

		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, oid.Hex(), got[0].ID)
		assert.Equal(mt, "Road trip", got[0].Title)
		assert.Equal(mt, []Track{{SongID: "s1", DurationSeconds: 67}}, got[0].Tracks)
		assert.True(mt, created.Equal(got[0].CreatedAt))
		assert.Equal(mt, "Focus", got[1].Title)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, "u1", evt.Command.Lookup("filter", "ownerId").StringValue())
	})

	mt.Run("list empty", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		got, err := store.ListByOwner(ctx, "u1")

		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("get", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "ownerId", Value: "u1"},
			{Key: "title", Value: "Road trip"},
			{Key: "tracks", Value: bson.A{
				bson.D{{Key: "songId", Value: "a"}},
				bson.D{{Key: "songId", Value: "b"}},
			}},
			{Key: "createdAt", Value: created},
		}))

		pl, err := store.Get(ctx, oid.Hex(), "u1")

		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), pl.ID)
		require.Len(mt, pl.Tracks, 2)
		assert.Equal(mt, "a", pl.Tracks[0].SongID)
		assert.Equal(mt, "b", pl.Tracks[1].SongID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "u1", evt.Command.Lookup("filter", "ownerId").StringValue())
		assert.Equal(mt, oid, evt.Command.Lookup("filter", "_id").ObjectID())
	})

	mt.Run("get not found", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := store.Get(ctx, oid.Hex(), "someone-else")

		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("get invalid id", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)

		_, err := store.Get(ctx, "not-an-object-id", "u1")

		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("update title", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		title := "New name"
		matched, err := store.Update(ctx, oid.Hex(), "u1", PlaylistPatch{Title: &title})

		require.NoError(mt, err)
		assert.True(mt, matched)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		assert.Equal(mt, "u1", evt.Command.Lookup("updates", "0", "q", "ownerId").StringValue())
		assert.Equal(mt, "New name", evt.Command.Lookup("updates", "0", "u", "$set", "title").StringValue())
	})

	mt.Run("update no match", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		title := "x"
		matched, err := store.Update(ctx, oid.Hex(), "intruder", PlaylistPatch{Title: &title})

		require.NoError(mt, err)
		assert.False(mt, matched)
	})

	mt.Run("update empty patch skips the write", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)

		matched, err := store.Update(ctx, oid.Hex(), "u1", PlaylistPatch{})

		require.NoError(mt, err)
		assert.False(mt, matched)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("delete", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		deleted, err := store.Delete(ctx, oid.Hex(), "u1")

		require.NoError(mt, err)
		assert.True(mt, deleted)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		deleted, err := store.Delete(ctx, oid.Hex(), "u1")

		require.NoError(mt, err)
		assert.False(mt, deleted)
	})

	mt.Run("delete invalid id", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)

		deleted, err := store.Delete(ctx, "zzz", "u1")

		require.NoError(mt, err)
		assert.False(mt, deleted)
	})

	mt.Run("push track", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		matched, err := store.PushTrack(ctx, oid.Hex(), "u1", Track{SongID: "s1", Title: "One"})

		require.NoError(mt, err)
		assert.True(mt, matched)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "s1", evt.Command.Lookup("updates", "0", "u", "$push", "tracks", "songId").StringValue())
	})

	mt.Run("pull tracks", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		matched, err := store.PullTracks(ctx, oid.Hex(), "u1", "s1")

		require.NoError(mt, err)
		assert.True(mt, matched)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "s1", evt.Command.Lookup("updates", "0", "u", "$pull", "tracks", "songId").StringValue())
	})

	mt.Run("write failure is wrapped", func(mt *mtest.T) {
		store := newMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		_, err := store.PullTracks(ctx, oid.Hex(), "u1", "s1")

		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "pull tracks")
	})
}
