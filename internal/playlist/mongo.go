package playlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "playlists"

type playlistDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID   string             `bson:"ownerId"`
	Title     string             `bson:"title"`
	Tracks    []Track            `bson:"tracks"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d playlistDoc) toPlaylist() Playlist {
	return Playlist{
		ID:        d.ID.Hex(),
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Tracks:    d.Tracks,
		CreatedAt: d.CreatedAt,
	}
}

// MongoStore keeps each playlist as one document with its tracks embedded,
// so deleting a playlist removes its tracks in the same write.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return newMongoStore(db.Collection(collectionName))
}

func newMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{
		coll: coll,
		now:  time.Now,
	}
}

// EnsureIndexes creates the owner index used by every query.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetName("ownerId_1"),
	})
	if err != nil {
		return fmt.Errorf("create ownerId index: %w", err)
	}
	return nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, ownerID string) ([]Playlist, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("find playlists: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []playlistDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode playlists: %w", err)
	}

	out := make([]Playlist, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toPlaylist())
	}
	return out, nil
}

func (s *MongoStore) Create(ctx context.Context, pl Playlist) (Playlist, error) {
	doc := playlistDoc{
		OwnerID:   pl.OwnerID,
		Title:     pl.Title,
		Tracks:    pl.Tracks,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if doc.Tracks == nil {
		doc.Tracks = []Track{}
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return Playlist{}, fmt.Errorf("insert playlist: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return Playlist{}, fmt.Errorf("insert playlist: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toPlaylist(), nil
}

func (s *MongoStore) Get(ctx context.Context, id, ownerID string) (Playlist, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return Playlist{}, ErrNotFound
	}

	var doc playlistDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Playlist{}, ErrNotFound
	}
	if err != nil {
		return Playlist{}, fmt.Errorf("find playlist: %w", err)
	}
	return doc.toPlaylist(), nil
}

func (s *MongoStore) Update(ctx context.Context, id, ownerID string, patch PlaylistPatch) (bool, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if len(set) == 0 {
		return false, nil
	}
	return s.updateOne(ctx, id, ownerID, bson.M{"$set": set}, "update playlist")
}

func (s *MongoStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return false, nil
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete playlist: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) PushTrack(ctx context.Context, id, ownerID string, track Track) (bool, error) {
	return s.updateOne(ctx, id, ownerID, bson.M{"$push": bson.M{"tracks": track}}, "push track")
}

// PullTracks removes every entry with the given songId. $pull keeps the
// relative order of the remaining elements.
func (s *MongoStore) PullTracks(ctx context.Context, id, ownerID, songID string) (bool, error) {
	return s.updateOne(ctx, id, ownerID, bson.M{"$pull": bson.M{"tracks": bson.M{"songId": songID}}}, "pull tracks")
}

func (s *MongoStore) updateOne(ctx context.Context, id, ownerID string, update bson.M, op string) (bool, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return false, nil
	}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.MatchedCount > 0, nil
}

// ownedFilter returns false when id is not a valid ObjectID; such an id can
// never match a document.
func ownedFilter(id, ownerID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "ownerId": ownerID}, true
}
