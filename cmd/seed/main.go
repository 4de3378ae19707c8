// Command seed fills the database with demo users, groups and posts.
package main

import (
	"context"
	"flag"
	"log"

	"quill/internal/bootstrap"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/seed"
)

func main() {
	users := flag.Int("users", 20, "Number of users to create")
	posts := flag.Int("posts", 8, "Posts per user")
	comments := flag.Int("comments", 2, "Comments per post")
	follows := flag.Int("follows", 5, "Authors each user follows")
	days := flag.Int("days", 90, "Spread publication dates over this many days")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible content (0 = random)")
	clean := flag.Bool("clean", false, "Delete existing users and content before seeding")
	fast := flag.Bool("fast", false, "Store plain-text passwords (logins will not work)")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:           *users,
		PostsPerUser:    *posts,
		CommentsPerPost: *comments,
		FollowsPerUser:  *follows,
		MaxDays:         *days,
		RandSeed:        *randSeed,
		SkipBcrypt:      *fast,
		DryRun:          *dryRun,
		Clean:           *clean,
	})
	if _, err := s.Run(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	// Cached index pages would hide the new posts until they expire.
	if rdb != nil && !*dryRun {
		if err := cache.NewRedisPageCache(rdb).Clear(ctx); err != nil {
			log.Printf("⚠️  Could not clear page cache: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	if !*fast {
		log.Printf("📧 All demo users have the password: %s", seed.DefaultPassword)
	}
}
