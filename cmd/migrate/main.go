// Command migrate applies, inspects and rolls back the database schema.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"quill/internal/config"
	"quill/internal/database"
)

const usageText = `usage: migrate <command>

  up             apply pending SQL migrations
  auto           run gorm AutoMigrate (refused in production)
  status         show the schema plan and migration state
  down [version] revert the latest applied migration`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("migrate %s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, command string, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return err
	}

	switch command {
	case "up":
		migrator, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		n, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Printf("%d migration(s) applied", n)

	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Println("automigrate complete")

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "mode\t%s\n", status.Mode)
		fmt.Fprintf(w, "env\t%s\n", status.Environment)
		fmt.Fprintf(w, "sql migrations\t%t\n", status.SQL)
		fmt.Fprintf(w, "automigrate\t%t\n", status.AutoMigrate)
		fmt.Fprintf(w, "applied\t%v\n", status.AppliedVersions)
		for _, m := range status.PendingMigrations {
			fmt.Fprintf(w, "pending\t%s\n", m)
		}
		return w.Flush()

	case "down":
		migrator, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		version, err := downTarget(ctx, migrator, args)
		if err != nil {
			return err
		}
		if err := migrator.Down(ctx, version); err != nil {
			return err
		}
		log.Printf("rolled back %06d", version)

	default:
		fmt.Fprintln(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// downTarget is the explicit version argument or, without one, the latest
// applied migration.
func downTarget(ctx context.Context, migrator *database.Migrator, args []string) (int, error) {
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q", args[0])
		}
		return v, nil
	}
	applied, err := migrator.Applied(ctx)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		return 0, errors.New("nothing to roll back")
	}
	return applied[len(applied)-1].Version, nil
}
