package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"quill/internal/middleware"

	"gorm.io/gorm"
)

// AppliedMigration is a row of the schema_migrations bookkeeping table.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the bookkeeping table name.
func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

// ErrSchemaDrift is returned when the database and the compiled migrations disagree.
var ErrSchemaDrift = errors.New("schema drift")

// Migrator applies and reverts SQL migrations, one transaction per step.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator binds the embedded migrations to db.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	ms, err := Migrations()
	if err != nil {
		return nil, err
	}
	return NewMigratorWith(db, ms), nil
}

// NewMigratorWith binds an explicit migration list to db.
func NewMigratorWith(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Applied lists recorded migrations, oldest first.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var rows []AppliedMigration
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return rows, nil
}

// Pending returns the migrations not yet applied. Recorded versions that are
// unknown to the binary, or whose script has changed since, are drift.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[int]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Version] = mig
	}

	done := make(map[int]bool, len(applied))
	var problems []string
	for _, row := range applied {
		done[row.Version] = true
		mig, ok := known[row.Version]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%06d is applied but unknown", row.Version))
		case row.Checksum != mig.Checksum:
			problems = append(problems, fmt.Sprintf("%s changed after it was applied", mig))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%w: %s", ErrSchemaDrift, strings.Join(problems, "; "))
	}

	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration and reports how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		middleware.Logger.Info("Applying migration", slog.Int("version", mig.Version), slog.String("name", mig.Name))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&AppliedMigration{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply %s: %w", mig, err)
		}
	}
	return len(pending), nil
}

// Down reverts version, which must be the most recently applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return errors.New("no migrations have been applied")
	}
	if latest := applied[len(applied)-1].Version; latest != version {
		return fmt.Errorf("migration %06d is not the latest applied (%06d)", version, latest)
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %06d is applied but unknown", ErrSchemaDrift, version)
	}

	middleware.Logger.Info("Rolling back migration", slog.Int("version", version), slog.String("name", target.Name))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.Down).Error; err != nil {
			return fmt.Errorf("revert %s: %w", target, err)
		}
		return tx.Where("version = ?", version).Delete(&AppliedMigration{}).Error
	})
}

// RunMigrations applies the embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	migrator, err := NewMigrator(db)
	if err != nil {
		return err
	}
	n, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		middleware.Logger.Info("SQL migrations applied", slog.Int("count", n))
	}
	return nil
}

// RollbackMigration reverts the latest embedded migration, named by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	migrator, err := NewMigrator(db)
	if err != nil {
		return err
	}
	return migrator.Down(ctx, version)
}
