package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"blogsphere/internal/middleware"

	"gorm.io/gorm"
)

// SchemaHistory records one applied migration.
type SchemaHistory struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"not null;index"`
}

func (SchemaHistory) TableName() string {
	return "schema_history"
}

// Migrator applies and reverts a migration set, keeping schema_history in
// step. Each script runs in the same transaction as its history row.
type Migrator struct {
	db  *gorm.DB
	set []Migration
	now func() time.Time
}

func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set, now: func() time.Time { return time.Now().UTC() }}
}

// RunMigrations applies every pending blogsphere migration.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	_, err := NewMigrator(db, Migrations()).Up(ctx)
	return err
}

// RollbackMigration reverts one applied blogsphere migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, Migrations()).Down(ctx, version)
}

// history returns the applied rows in version order. A database that has
// never been migrated has no history table yet.
func (m *Migrator) history(ctx context.Context) ([]SchemaHistory, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaHistory{}) {
		return nil, nil
	}
	var rows []SchemaHistory
	if err := db.Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema history: %w", err)
	}
	return rows, nil
}

// Status reports applied versions and the migrations still to run.
func (m *Migrator) Status(ctx context.Context) ([]int, []Migration, error) {
	rows, err := m.history(ctx)
	if err != nil {
		return nil, nil, err
	}
	applied := make([]int, 0, len(rows))
	done := make(map[int]bool, len(rows))
	for _, r := range rows {
		applied = append(applied, r.Version)
		done[r.Version] = true
	}

	var pending []Migration
	for _, mig := range m.set {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return applied, pending, nil
}

// Up applies pending migrations in version order and returns the ones it ran.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaHistory{}); err != nil {
		return nil, fmt.Errorf("create schema_history: %w", err)
	}
	rows, err := m.history(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkHistory(rows, m.set); err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(rows))
	for _, r := range rows {
		done[r.Version] = true
	}

	var ran []Migration
	for _, mig := range m.set {
		if done[mig.Version] {
			continue
		}
		entry := SchemaHistory{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum(), AppliedAt: m.now()}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&entry).Error
		})
		if err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "schema migration applied", slog.String("migration", mig.String()))
		ran = append(ran, mig)
	}
	return ran, nil
}

// Down reverts an applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var mig *Migration
	for i := range m.set {
		if m.set[i].Version == version {
			mig = &m.set[i]
		}
	}
	if mig == nil {
		return fmt.Errorf("no migration with version %06d", version)
	}

	rows, err := m.history(ctx)
	if err != nil {
		return err
	}
	applied := false
	for _, r := range rows {
		applied = applied || r.Version == version
	}
	if !applied {
		return fmt.Errorf("%s has not been applied", mig)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&SchemaHistory{}).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", mig, err)
	}
	middleware.Logger.InfoContext(ctx, "schema migration reverted", slog.String("migration", mig.String()))
	return nil
}

// checkHistory refuses to migrate a database whose history names versions
// this build does not know, or whose applied scripts have since changed.
func checkHistory(rows []SchemaHistory, set []Migration) error {
	known := make(map[int]Migration, len(set))
	for _, m := range set {
		known[m.Version] = m
	}

	var unknown []int
	for _, r := range rows {
		m, ok := known[r.Version]
		if !ok {
			unknown = append(unknown, r.Version)
			continue
		}
		if r.Checksum != m.Checksum() {
			return fmt.Errorf("%s was edited after it was applied; add a new migration instead", m)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Ints(unknown)
	names := make([]string, 0, len(unknown))
	for _, v := range unknown {
		names = append(names, fmt.Sprintf("%06d", v))
	}
	return fmt.Errorf("schema_history has versions this build does not know: %s", strings.Join(names, ", "))
}
