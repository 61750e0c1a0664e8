// Command cli is the operator tool: it bootstraps an admin account against
// the configured database. The API has no route that grants the admin role,
// so the first admin must come from here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/infrastructure/logger"
	"github.com/pesona-id/pesona-backend/pkg/config"
	"github.com/pesona-id/pesona-backend/pkg/database"
)

func main() {
	name := flag.String("name", "", "admin handle (required)")
	password := flag.String("password", "", "admin password (required, min 8 chars)")
	email := flag.String("email", "", "admin email (optional)")
	migrate := flag.Bool("migrate", false, "run schema migration first")
	flag.Parse()

	if *name == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Connect(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if *migrate {
		if err := db.AutoMigrate(domain.AllModels()...); err != nil {
			fmt.Fprintf(os.Stderr, "schema migration failed: %v\n", err)
			os.Exit(1)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user, err := ensureAdmin(ctx, db, *name, *email, string(hash))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to upsert admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin %q ready (id %s)\n", user.Name, user.ID)
}

// ensureAdmin creates the admin account, or promotes and rotates the
// credentials of an existing user with that handle.
func ensureAdmin(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (domain.User, error) {
	user := domain.User{Name: name, Password: passwordHash, Role: domain.RoleAdmin}
	if email != "" {
		user.Email = &email
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.User
		err := tx.First(&existing, "name = ?", name).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		// Promote and rotate credentials instead of failing.
		existing.Role = domain.RoleAdmin
		existing.Password = passwordHash
		if email != "" {
			existing.Email = &email
		}
		user = existing
		return tx.Save(&existing).Error
	})
	return user, err
}
