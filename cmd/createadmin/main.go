// Command createadmin promotes a user to the admin role, creating the
// account first when it does not exist yet.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/openshop/storefront/internal/config"
	"github.com/openshop/storefront/internal/db"
	"github.com/openshop/storefront/internal/hash"
	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
)

func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "password for a newly created account")
	name := flag.String("name", "Administrator", "full name for a newly created account")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	ctx := context.Background()
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	r := repo.New(gdb)

	user, err := r.GetUserByEmail(ctx, *email)
	switch {
	case err == nil:
		user.Role = models.RoleAdmin
		if err := r.SaveUser(ctx, user); err != nil {
			log.Fatalf("save user: %v", err)
		}
		fmt.Printf("user %s promoted to admin\n", *email)
	default:
		if *password == "" {
			log.Fatal("-password is required to create a new account")
		}
		pwHash, err := hash.HashPassword(*password)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		user = &models.User{
			Email:        *email,
			PasswordHash: pwHash,
			FullName:     *name,
			Role:         models.RoleAdmin,
		}
		if err := r.CreateUser(ctx, user); err != nil {
			log.Fatalf("create user: %v", err)
		}
		fmt.Printf("admin %s created\n", *email)
	}
}
