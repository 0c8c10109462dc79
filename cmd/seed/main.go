package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"userapi/internal/config"
	"userapi/internal/db"
	apperrors "userapi/internal/errors"
	"userapi/internal/repository"
	"userapi/internal/service"
)

func main() {
	log.Println("Starting seed script...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	payloads, err := readPayloads(cfg.SeedFile)
	if err != nil {
		log.Fatalf("Failed to read seed data: %v", err)
	}
	log.Printf("Read %d users", len(payloads))

	// The seed path runs the same validation and hashing as the API.
	userService := service.NewUserService(repository.NewUserRepository(gormDB, nil), nil)

	created, skipped, err := seedUsers(context.Background(), userService, payloads)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Users created: %d", created)
	log.Printf("  - Invalid users skipped: %d", skipped)
}

// readPayloads decodes a JSON array of user payloads from path, or stdin when
// path is empty.
func readPayloads(path string) ([]map[string]interface{}, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var payloads []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return payloads, nil
}

// seedUsers creates every valid payload. Invalid payloads (null entries and
// emails that already exist included) are logged and skipped; storage
// failures abort.
func seedUsers(ctx context.Context, svc service.UserService, payloads []map[string]interface{}) (created int, skipped int, err error) {
	for i, payload := range payloads {
		if payload == nil {
			log.Printf("Skipping user #%d: not an object", i)
			skipped++
			continue
		}
		if _, ok := payload["password_confirmation"]; !ok {
			payload["password_confirmation"] = payload["password"]
		}

		user, err := svc.CreateUser(ctx, payload)
		if err != nil {
			var verr *apperrors.ValidationError
			if errors.As(err, &verr) {
				log.Printf("Skipping user #%d: %v", i, verr.Fields)
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("error creating user #%d: %w", i, err)
		}
		log.Printf("Created user %d <%s>", user.ID, user.Email)
		created++
	}

	return created, skipped, nil
}
