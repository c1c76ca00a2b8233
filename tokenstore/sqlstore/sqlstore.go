// Package sqlstore keeps credentials in a SQLite database through GORM. Each
// Set runs in one transaction.
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/promptstudio/tokenstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Credential is one stored key/value pair.
type Credential struct {
	Name      string `gorm:"column:name;primaryKey"`
	Value     string `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

func (Credential) TableName() string {
	return "credentials"
}

var _ tokenstore.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("[sqlstore.Open] create dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("[sqlstore.Open] open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := db.AutoMigrate(&Credential{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("[sqlstore.Open] migrate: %w", err)
	}
	if path != ":memory:" {
		if err := os.Chmod(path, 0o600); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("[sqlstore.Open] restrict %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, keys ...string) (tokenstore.Values, error) {
	values := make(tokenstore.Values, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	var rows []Credential
	if err := s.db.WithContext(ctx).Where("name IN ?", keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("[sqlstore.Get] %w", err)
	}
	for _, r := range rows {
		values[r.Name] = r.Value
	}
	return values, nil
}

func (s *Store) Set(ctx context.Context, values tokenstore.Values) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]Credential, 0, len(values))
	for k, v := range values {
		rows = append(rows, Credential{Name: k, Value: v})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("[sqlstore.Set] %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("name IN ?", keys).Delete(&Credential{}).Error; err != nil {
		return fmt.Errorf("[sqlstore.Remove] %w", err)
	}
	return nil
}
