package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/krloslao/Listio/internal/auth"
)

// MockStore implements Store for handler tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListByOwner(ctx context.Context, ownerID string) ([]Playlist, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Playlist), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, pl Playlist) (Playlist, error) {
	args := m.Called(ctx, pl)
	return args.Get(0).(Playlist), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, id, ownerID string) (Playlist, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(Playlist), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, id, ownerID string, patch PlaylistPatch) (bool, error) {
	args := m.Called(ctx, id, ownerID, patch)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) PushTrack(ctx context.Context, id, ownerID string, track Track) (bool, error) {
	args := m.Called(ctx, id, ownerID, track)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) PullTracks(ctx context.Context, id, ownerID, songID string) (bool, error) {
	args := m.Called(ctx, id, ownerID, songID)
	return args.Bool(0), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	channels []string
	messages []string
	err      error
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.channels = append(m.channels, channel)
	m.messages = append(m.messages, message.(string))
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (m *MockPublisher) events() []Event {
	out := make([]Event, 0, len(m.messages))
	for _, msg := range m.messages {
		var ev Event
		_ = json.Unmarshal([]byte(msg), &ev)
		out = append(out, ev)
	}
	return out
}

func newTestRouter(srv *Server) chi.Router {
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func newRequestWithUser(method, target string, body any, userID string) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	newTestRouter(srv).ServeHTTP(w, req)
	return w
}

// withBodyLimit caps req's body the way the body size middleware does and
// drops the declared length, as for a chunked upload.
func withBodyLimit(req *http.Request, maxBytes int64) *http.Request {
	req.ContentLength = -1
	req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, maxBytes)
	return req
}
