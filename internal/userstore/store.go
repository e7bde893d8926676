package userstore

import (
	"context"
	"fmt"
	"time"

	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the SQLite-backed user table served by the local directory.
type Store struct {
	db *gorm.DB
}

type UserEntry struct {
	ID        int64     `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Name     string
	Username string `gorm:"index"`
	Email    string
}

func (e UserEntry) Record() userline.UserRecord {
	return userline.UserRecord{
		ID:       e.ID,
		Name:     e.Name,
		Username: e.Username,
		Email:    e.Email,
	}
}

func NewStore(dbFilePath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening user database %s: %w", dbFilePath, err)
	}

	if err := db.AutoMigrate(&UserEntry{}); err != nil {
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database connection. Tests need this on Windows before
// the temporary database file can be removed.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Add inserts a user, replacing any existing row with the same non-zero ID.
func (s *Store) Add(ctx context.Context, user userline.UserRecord) (*UserEntry, error) {
	entry := UserEntry{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		Email:    user.Email,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// FindByUsername returns every user whose username equals the argument.
// SQLite's default BINARY collation keeps the comparison case-sensitive.
func (s *Store) FindByUsername(ctx context.Context, username string) ([]userline.UserRecord, error) {
	var entries []UserEntry
	result := s.db.WithContext(ctx).
		Where("username = ?", username).
		Order("id asc").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return toRecords(entries), nil
}

// All returns every user ordered by ID.
func (s *Store) All(ctx context.Context) ([]userline.UserRecord, error) {
	var entries []UserEntry
	result := s.db.WithContext(ctx).Order("id asc").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return toRecords(entries), nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&UserEntry{}).Count(&count)
	return count, result.Error
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&UserEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no user found with id %d", id)
	}

	return nil
}

// Seed upserts users in a single transaction and returns how many were written.
func (s *Store) Seed(ctx context.Context, users []userline.UserRecord) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, user := range users {
			entry := UserEntry{
				ID:       user.ID,
				Name:     user.Name,
				Username: user.Username,
				Email:    user.Email,
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to seed user %q: %w", user.Username, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(users), nil
}

func toRecords(entries []UserEntry) []userline.UserRecord {
	records := make([]userline.UserRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, entry.Record())
	}
	return records
}
