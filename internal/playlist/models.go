package playlist

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxTitleLen = 200

// Playlist is the aggregate root. Tracks are embedded and have no identity
// outside of their parent playlist.
type Playlist struct {
	ID        string
	OwnerID   string
	Title     string
	Tracks    []Track
	CreatedAt time.Time
}

// Track is a single entry of a playlist. Everything except SongID is opaque
// metadata copied from the search provider or the client payload.
type Track struct {
	SongID          string `json:"songId" bson:"songId"`
	Title           string `json:"title" bson:"title"`
	Artist          string `json:"artist" bson:"artist"`
	Album           string `json:"album" bson:"album"`
	ReleaseDate     string `json:"releaseDate" bson:"releaseDate"`
	DurationSeconds int    `json:"durationSeconds" bson:"durationSeconds"`
	ThumbnailURL    string `json:"thumbnailUrl" bson:"thumbnailUrl"`
	Explicit        bool   `json:"explicit" bson:"explicit"`
	PreviewURL      string `json:"previewUrl" bson:"previewUrl"`
}

// PlaylistPatch lists the fields the update path is allowed to touch.
// A nil field means "leave untouched".
type PlaylistPatch struct {
	Title *string
}

func (p PlaylistPatch) IsEmpty() bool {
	return p.Title == nil
}

// PlaylistResponse is the only shape a playlist is ever serialized in.
// The owner is deliberately absent.
type PlaylistResponse struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content []Track   `json:"content"`
	Created time.Time `json:"created"`
}

func toResponse(pl Playlist) PlaylistResponse {
	content := pl.Tracks
	if content == nil {
		content = []Track{}
	}
	return PlaylistResponse{
		ID:      pl.ID,
		Title:   pl.Title,
		Content: content,
		Created: pl.CreatedAt.UTC(),
	}
}

type createPlaylistRequest struct {
	Title *string `json:"title"`
}

func (req createPlaylistRequest) validate() (string, error) {
	if req.Title == nil {
		return "", &ValidationError{Field: "title", Message: "title is required"}
	}
	return validateTitle(*req.Title)
}

type updatePlaylistRequest struct {
	Title *string `json:"title"`
}

func (req updatePlaylistRequest) patch() (PlaylistPatch, error) {
	var patch PlaylistPatch
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return PlaylistPatch{}, err
		}
		patch.Title = &title
	}
	return patch, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", &ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return title, nil
}

func validateTrack(t Track) (Track, error) {
	t.SongID = strings.TrimSpace(t.SongID)
	if t.SongID == "" {
		return Track{}, &ValidationError{Field: "songId", Message: "songId is required"}
	}
	if t.DurationSeconds < 0 {
		return Track{}, &ValidationError{Field: "durationSeconds", Message: "durationSeconds must be >= 0"}
	}
	return t, nil
}
