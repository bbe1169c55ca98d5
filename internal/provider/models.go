package provider

// TrackMetadata mirrors the playlist track entry so search results can be
// posted back to a playlist unchanged.
type TrackMetadata struct {
	SongID          string `json:"songId"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	ReleaseDate     string `json:"releaseDate"`
	DurationSeconds int    `json:"durationSeconds"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	Explicit        bool   `json:"explicit"`
	PreviewURL      string `json:"previewUrl"`
}
