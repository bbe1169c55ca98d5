package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db    DB
	newID func() string
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{
		db:    db,
		newID: uuid.NewString,
	}
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password, created_at
      FROM users WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func (r *PostgresRepository) FindUserByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password, created_at
      FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresRepository) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (id, email, password)
        VALUES ($1, $2, $3)
        RETURNING id, email, password, created_at`,
		r.newID(), strings.ToLower(email), passwordHash,
	)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func AutoMigrate(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS users (
          id         uuid PRIMARY KEY,
          email      TEXT UNIQUE NOT NULL,
          password   TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}
