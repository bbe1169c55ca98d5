package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	// bcrypt only accepts the first 72 bytes.
	maxPasswordLen = 72
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MeResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type Server struct {
	repo   Repository
	tokens *Tokens
	log    *zap.Logger
	cost   int
}

func NewServer(repo Repository, tokens *Tokens, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		repo:   repo,
		tokens: tokens,
		log:    log,
		cost:   bcrypt.DefaultCost,
	}
}

// Router serves the identity endpoints, meant to be mounted under /auth.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/refresh", s.handleRefresh)
	r.With(RequireBearer(s.tokens)).Get("/me", s.handleMe)
	return r
}

// readCredentials decodes and normalizes a credentials body. A non-zero
// status means the request must be rejected with that status and message.
func readCredentials(r *http.Request) (Credentials, int, string) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		status, msg := decodeFailure(err)
		return Credentials{}, status, msg
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if creds.Email == "" || creds.Password == "" {
		return Credentials{}, http.StatusBadRequest, "email and password are required"
	}
	return creds, 0, ""
}

func decodeFailure(err error) (int, string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}
	return http.StatusBadRequest, "invalid JSON body"
}

// respondTokens issues a fresh pair for user and writes it with status.
func (s *Server) respondTokens(w http.ResponseWriter, status int, user User, op string) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		s.log.Error(op+": issue tokens", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, pair)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, status, msg := readCredentials(r)
	if status != 0 {
		writeError(w, status, msg)
		return
	}
	if len(creds.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if len(creds.Password) > maxPasswordLen {
		writeError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		s.log.Error("register: hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := s.repo.CreateUser(r.Context(), creds.Email, string(hash))
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		s.log.Error("register: create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	s.respondTokens(w, http.StatusCreated, user, "register")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, status, msg := readCredentials(r)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	user, err := s.repo.FindUserByEmail(r.Context(), creds.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		s.log.Error("login: find user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Unknown email and wrong password look the same to the caller.
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.respondTokens(w, http.StatusOK, user, "login")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		status, msg := decodeFailure(err)
		writeError(w, status, msg)
		return
	}
	if body.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	claims, err := s.tokens.Parse(body.RefreshToken, tokenTypeRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// The account may have been removed since the token was issued.
	user, err := s.repo.FindUserByID(r.Context(), claims.UserID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	case err != nil:
		s.log.Error("refresh: find user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.respondTokens(w, http.StatusOK, user, "refresh")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	user, err := s.repo.FindUserByID(r.Context(), userID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		s.log.Error("me: find user", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{UserID: user.ID, Email: user.Email})
}
