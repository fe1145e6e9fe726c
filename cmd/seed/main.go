// seed creates a test user in the local dev database through the regular
// signup path, so the stored digest matches the configured hasher.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/charon/internal/clock"
	"github.com/ErlanBelekov/charon/internal/credential"
	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/ErlanBelekov/charon/internal/email"
	"github.com/ErlanBelekov/charon/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/charon/internal/usecase"
)

const (
	seedUsername = "seeduser"
	seedEmail    = "seed@example.com"
	seedPassword = "Seed1234"
)

// detached satisfies domain.Session for signup outside of an HTTP request.
type detached struct{}

func (detached) Bind(context.Context, *domain.User) error { return nil }
func (detached) Destroy(context.Context) error            { return nil }

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	if err := postgres.Migrate(ctx, dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL, postgres.PoolOptions{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	hasher, err := credential.NewHasher(os.Getenv("PASSWORD_HASH"), 10)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	auth := usecase.NewAuthUsecase(
		postgres.NewUserRepository(pool),
		hasher,
		email.NewLogSender(logger),
		clock.System{},
		usecase.AuthConfig{},
		logger,
	)

	user, err := auth.Signup(ctx, usecase.SignupInput{
		Username:        seedUsername,
		Email:           seedEmail,
		Password:        seedPassword,
		PasswordConfirm: seedPassword,
	}, detached{})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		fmt.Println("Seed user already exists")
	case err != nil:
		log.Fatalf("signup: %v", err)
	default:
		fmt.Println("Seed complete")
		fmt.Printf("  User ID:  %s\n", user.ID)
	}

	fmt.Println()
	fmt.Printf("  Username: %s\n", seedUsername)
	fmt.Printf("  Email:    %s\n", seedEmail)
	fmt.Printf("  Password: %s\n", seedPassword)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Sign in and keep the session cookie:")
	fmt.Println()
	fmt.Printf("    curl -si -c cookies.txt -X POST http://localhost:8080/signin \\\n")
	fmt.Printf("      -d username=%s -d password=%s\n", seedUsername, seedPassword)
	fmt.Println()
	fmt.Println("  Who am I:")
	fmt.Println()
	fmt.Println("    curl -s -b cookies.txt http://localhost:8080/me")
	fmt.Println()
	fmt.Println("  Request a reset link (printed in the server log with MAIL_TRANSPORT=log):")
	fmt.Println()
	fmt.Printf("    curl -si -X POST http://localhost:8080/forgot -d email=%s\n", seedEmail)
}
