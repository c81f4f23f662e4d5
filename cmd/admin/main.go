// Package main provides admin management utilities for Community Hub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"communityhub/internal/config"
	"communityhub/internal/database"
	"communityhub/internal/models"
	"communityhub/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil || id == 0 {
			fmt.Printf("Invalid user id %q\n", os.Args[2])
			os.Exit(1)
		}
		setAdmin(ctx, users, cfg, uint(id), command == "promote")

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>   - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>    - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins         - List all admins")
}

func setAdmin(ctx context.Context, users repository.UserRepository, cfg *config.Config, id uint, admin bool) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User with ID %d not found\n", id)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has is_admin=%t\n", user.Email, user.ID, admin)
		return
	}
	if !admin && user.Email == repository.NormalizeEmail(cfg.AdminEmail) {
		fmt.Println("The owner admin set by ADMIN_EMAIL cannot be demoted")
		os.Exit(1)
	}

	if err := users.UpdateFields(ctx, user.ID, map[string]any{"is_admin": admin}); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	verb := "promoted to"
	if !admin {
		verb = "demoted from"
	}
	fmt.Printf("Successfully %s admin: %s (ID: %d)\n", verb, user.Email, user.ID)
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	all, err := users.List(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	n := 0
	for _, u := range all {
		if !u.IsAdmin {
			continue
		}
		if n == 0 {
			fmt.Println("Current Admins:")
			fmt.Println("─────────────────────────────────────")
		}
		n++
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", u.ID, u.Name, u.Email)
	}
	if n == 0 {
		fmt.Println("No admins found in the system")
		return
	}
	fmt.Println("─────────────────────────────────────")
}
