package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/spotsnack/backend/internal/config"
	"github.com/spotsnack/backend/internal/models"
	"github.com/spotsnack/backend/internal/users"
)

// MinPasswordLength matches the register endpoint's binding
const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

func main() {
	name := flag.String("name", "", "Full name of the user (required)")
	email := flag.String("email", "", "Email address (required)")
	password := flag.String("password", "", "Password (required, min 8 chars)")
	flag.Parse()

	tp, err := initTracer()
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer tp.Shutdown(context.Background())

	if err := validateInputs(*name, *email, *password); err != nil {
		log.Fatalf("Validation error: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to PostgreSQL database")

	user, err := createUser(ctx, users.NewPostgresStore(pool), *name, *email, *password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	log.Printf("✓ Successfully created user")
	log.Printf("  ID: %s", user.ID)
	log.Printf("  Name: %s", user.Name)
	log.Printf("  Email: %s", user.Email)
}

// validateInputs applies the same rules as the register endpoint plus a
// letter-and-digit check for seeded accounts
func validateInputs(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required and cannot be empty")
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}

	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}

	return nil
}

// createUser makes sure the table exists and inserts the account
func createUser(ctx context.Context, store *users.PostgresStore, name, email, password string) (*models.User, error) {
	tracer := otel.Tracer("seed-user")
	ctx, span := tracer.Start(ctx, "create_user")
	defer span.End()

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	user, err := store.Create(ctx, strings.TrimSpace(name), email, password)
	if errors.Is(err, users.ErrEmailTaken) {
		return nil, fmt.Errorf("user with email %s already exists", email)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("User inserted successfully with ID: %s", user.ID)
	return user, nil
}

func initTracer() (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(trace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return tp, nil
}
