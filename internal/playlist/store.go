package playlist

import "context"

// Store is the persistence contract of the playlist service. Every method is
// scoped by owner: a playlist owned by someone else behaves exactly like a
// missing one.
//
// Mutations report whether a document matched. The HTTP layer answers success
// either way, the flag only feeds logging.
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Playlist, error)
	Create(ctx context.Context, pl Playlist) (Playlist, error)
	Get(ctx context.Context, id, ownerID string) (Playlist, error)
	Update(ctx context.Context, id, ownerID string, patch PlaylistPatch) (bool, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	PushTrack(ctx context.Context, id, ownerID string, track Track) (bool, error)
	PullTracks(ctx context.Context, id, ownerID, songID string) (bool, error)
}
