package storage

import (
	"fmt"
	"time"

	"github.com/StudioSol/set"
	"gorm.io/gorm"
)

// subscriberRow is the GORM model backing the SQL subscriber store.
type subscriberRow struct {
	ChatID int64 `gorm:"primaryKey;column:chat_id"`
}

func (subscriberRow) TableName() string {
	return "subscribers"
}

// SQLStore implements core.SubscriberStorage on a SQL database via GORM. The
// dialector is injected so the driver choice stays with the caller.
type SQLStore struct {
	db *gorm.DB
}

// FromSQL creates a new SQL subscriber store.
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStore, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&subscriberRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Load reads the full subscriber set.
func (s *SQLStore) Load() (*set.LinkedHashSetINT64, error) {
	subscribers := set.NewLinkedHashSetINT64()

	var rows []subscriberRow
	if err := s.db.Find(&rows).Error; err != nil {
		return subscribers, fmt.Errorf("failed to load subscribers: %w", err)
	}

	for _, row := range rows {
		subscribers.Add(row.ChatID)
	}

	return subscribers, nil
}

// Save replaces the stored set with the given one, in a single transaction.
func (s *SQLStore) Save(subscribers *set.LinkedHashSetINT64) error {
	rows := make([]subscriberRow, 0, subscribers.Length())
	for id := range subscribers.Iter() {
		rows = append(rows, subscriberRow{ChatID: id})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&subscriberRow{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		return tx.Create(&rows).Error
	})

	if err != nil {
		return fmt.Errorf("failed to save subscribers: %w", err)
	}

	return nil
}
