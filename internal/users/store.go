package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/spotsnack/backend/internal/models"
)

// BcryptCost is the cost factor for bcrypt hashing (10 = ~100ms)
const BcryptCost = 10

const uniqueViolation = "23505"

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

// Store persists user accounts
type Store interface {
	Create(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// PostgresStore is a Store backed by the users table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store using pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the users table when it does not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id              UUID PRIMARY KEY,
			name            TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// Create inserts a user with a bcrypt-hashed password
func (s *PostgresStore) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Name:           name,
		Email:          NormalizeEmail(email),
		HashedPassword: hashedPassword,
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, hashed_password)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		user.ID, user.Name, user.Email, user.HashedPassword,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the user when password matches the stored hash
func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.scanOne(ctx,
		`SELECT id, name, email, hashed_password, created_at, updated_at FROM users WHERE email = $1`,
		NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID loads a user by primary key
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanOne(ctx,
		`SELECT id, name, email, hashed_password, created_at, updated_at FROM users WHERE id = $1`,
		id)
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// HashPassword hashes password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the bcrypt hash
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// NormalizeEmail lowercases and trims an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
