// Command admin provides management utilities for quill: groups, accounts
// and the index page cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"quill/internal/bootstrap"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/seed"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-group -title <title> -slug <slug> [-description <text>]")
	fmt.Println("  go run ./cmd/admin load-groups <file.yml>   - Upsert groups from a YAML file")
	fmt.Println("  go run ./cmd/admin list-groups")
	fmt.Println("  go run ./cmd/admin create-user -username <name> -password <password> [-email <email>]")
	fmt.Println("  go run ./cmd/admin list-users [-limit 50] [-offset 0]")
	fmt.Println("  go run ./cmd/admin clear-cache                - Drop cached index pages")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "create-group":
		err = createGroup(ctx, db, args)
	case "load-groups":
		err = loadGroups(ctx, db, args)
	case "list-groups":
		err = listGroups(ctx, db)
	case "create-user":
		err = createUser(ctx, db, args)
	case "list-users":
		err = listUsers(ctx, db, args)
	case "clear-cache":
		err = clearCache(ctx, rdb)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func createGroup(ctx context.Context, db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("create-group", flag.ExitOnError)
	title := fs.String("title", "", "Group title")
	slug := fs.String("slug", "", "Group slug")
	description := fs.String("description", "", "Group description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	groups := service.NewGroupService(repository.NewGroupRepository(db))
	group, err := groups.CreateGroup(ctx, service.CreateGroupInput{
		Title:       *title,
		Slug:        *slug,
		Description: *description,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Printf("Created group %q (ID: %d, slug: %s)\n", group.Title, group.ID, group.Slug)
	return nil
}

func loadGroups(ctx context.Context, db *gorm.DB, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: load-groups <file.yml>")
	}
	items, err := seed.LoadGroupsFile(args[0])
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := validation.ValidateGroupSlug(item.Slug); err != nil {
			return fmt.Errorf("group %q: %w", item.Slug, err)
		}
		if err := validation.ValidateGroupTitle(item.Title); err != nil {
			return fmt.Errorf("group %q: %w", item.Slug, err)
		}
	}

	groups, err := seed.Groups(ctx, db, items)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d groups from %s\n", len(groups), args[0])
	return nil
}

func listGroups(ctx context.Context, db *gorm.DB) error {
	groups, err := repository.NewGroupRepository(db).List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tTITLE")
	for _, g := range groups {
		fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
	}
	return w.Flush()
}

func createUser(ctx context.Context, db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password")
	email := fs.String("email", "", "Email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth := service.NewAuthService(repository.NewUserRepository(db))
	user, err := auth.Signup(ctx, service.SignupInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Printf("Created user %s (ID: %d)\n", user.Username, user.ID)
	return nil
}

func listUsers(ctx context.Context, db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum number of users")
	offset := fs.Int("offset", 0, "Users to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := repository.NewUserRepository(db).List(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tJOINED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func clearCache(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		fmt.Println("Redis is not reachable; servers without Redis keep their page cache in memory.")
		return nil
	}
	if err := cache.NewRedisPageCache(rdb).Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Index page cache cleared")
	return nil
}

// describe flattens field errors into one line for the terminal.
func describe(err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err
	}
	msg := appErr.Message
	for field, m := range appErr.Fields {
		msg += fmt.Sprintf(" %s: %s", field, m)
	}
	return errors.New(msg)
}
