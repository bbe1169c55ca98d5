package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultYouTubeSearchURL = "https://www.googleapis.com/youtube/v3/search"
	youTubeWatchURL         = "https://www.youtube.com/watch?v="
)

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// YouTubeClient searches videos through the YouTube Data API v3. Durations
// come from a second call to the videos endpoint.
type YouTubeClient struct {
	apiKey    string
	searchURL string
	http      *http.Client
	log       *zap.Logger
}

var _ Provider = (*YouTubeClient)(nil)

func NewYouTubeClient(apiKey, searchURL string, log *zap.Logger) *YouTubeClient {
	if searchURL == "" {
		searchURL = DefaultYouTubeSearchURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &YouTubeClient{
		apiKey:    apiKey,
		searchURL: searchURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *YouTubeClient) SearchTracks(ctx context.Context, query string, limit int) ([]TrackMetadata, error) {
	if limit <= 0 || limit > 25 {
		limit = defaultLimit
	}

	val := url.Values{}
	val.Set("part", "snippet")
	val.Set("type", "video")
	val.Set("videoCategoryId", "10")
	val.Set("maxResults", strconv.Itoa(limit))
	val.Set("q", query)
	val.Set("key", c.apiKey)

	var body ytSearchResponse
	if err := c.getJSON(ctx, c.searchURL+"?"+val.Encode(), &body); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	out := make([]TrackMetadata, 0, len(body.Items))
	ids := make([]string, 0, len(body.Items))
	for _, it := range body.Items {
		thumbs := it.Snippet.Thumbnails
		thumb := thumbs.High.URL
		if thumb == "" {
			thumb = thumbs.Medium.URL
		}
		if thumb == "" {
			thumb = thumbs.Default.URL
		}

		out = append(out, TrackMetadata{
			SongID:       it.ID.VideoID,
			Title:        it.Snippet.Title,
			Artist:       it.Snippet.ChannelTitle,
			ReleaseDate:  releaseDate(it.Snippet.PublishedAt),
			ThumbnailURL: thumb,
			PreviewURL:   youTubeWatchURL + it.ID.VideoID,
		})
		ids = append(ids, it.ID.VideoID)
	}

	if len(ids) > 0 {
		durations, err := c.fetchDurations(ctx, ids)
		if err != nil {
			// Results are still useful without durations.
			c.log.Warn("youtube fetch durations", zap.Error(err))
			return out, nil
		}
		for i := range out {
			out[i].DurationSeconds = durations[out[i].SongID]
		}
	}

	return out, nil
}

func (c *YouTubeClient) fetchDurations(ctx context.Context, ids []string) (map[string]int, error) {
	val := url.Values{}
	val.Set("part", "contentDetails")
	val.Set("id", strings.Join(ids, ","))
	val.Set("key", c.apiKey)

	var body ytVideosResponse
	if err := c.getJSON(ctx, c.videosURL()+"?"+val.Encode(), &body); err != nil {
		return nil, err
	}

	durations := make(map[string]int, len(body.Items))
	for _, item := range body.Items {
		durations[item.ID] = parseISO8601Duration(item.ContentDetails.Duration)
	}
	return durations, nil
}

// videosURL derives the videos endpoint from the configured search endpoint.
func (c *YouTubeClient) videosURL() string {
	if base, ok := strings.CutSuffix(c.searchURL, "/search"); ok {
		return base + "/videos"
	}
	return "https://www.googleapis.com/youtube/v3/videos"
}

func (c *YouTubeClient) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// parseISO8601Duration handles the PT#H#M#S subset YouTube returns and
// yields seconds. Anything else is 0.
func parseISO8601Duration(duration string) int {
	m := isoDurationRe.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += n * mult
	}
	return total
}

func releaseDate(publishedAt string) string {
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}
