// Command main runs the database seeder for Community Hub.
package main

import (
	"context"
	"flag"
	"log"

	"communityhub/internal/config"
	"communityhub/internal/database"
	"communityhub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Remove posts and non-admin users before seeding")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing to the database")
	fast := flag.Bool("fast", false, "Skip bcrypt for seeded passwords (local only)")
	maxDays := flag.Int("days", 90, "Spread post timestamps over this many days")
	inventory := flag.String("servers", "", "YAML server inventory to apply")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *fast && cfg.IsProduction() {
		log.Fatal("-fast is not allowed in production")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if *inventory != "" {
		inv, err := seed.LoadInventory(*inventory)
		if err != nil {
			log.Fatalf("Inventory load failed: %v", err)
		}
		res, err := seed.ApplyInventory(ctx, db, inv)
		if err != nil {
			log.Fatalf("Inventory apply failed: %v", err)
		}
		log.Printf("Servers: %d created, %d updated", res.Created, res.Updated)
	}

	if *numUsers == 0 {
		return
	}
	res, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		SkipBcrypt:  *fast,
		MaxDays:     *maxDays,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d reactions",
		res.Users, res.Posts, res.Comments, res.Reactions)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
