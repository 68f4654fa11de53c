// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// statistics endpoints and the ETag fingerprint of the message list.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// GroupCount is one GROUP BY row. Label is nil for NULL column values.
type GroupCount struct {
	Label *string
	N     int64
}

// SentimentGroups counts messages per raw sentiment column value, NULL
// included. Interpreting the labels is left to the caller.
func SentimentGroups(ctx context.Context, db *gorm.DB) ([]GroupCount, error) {
	return groupBy(ctx, db, "sentiment")
}

// TopicGroups counts messages per raw topic column value, NULL included.
func TopicGroups(ctx context.Context, db *gorm.DB) ([]GroupCount, error) {
	return groupBy(ctx, db, "topic")
}

// column is one of the fixed names above, never user input.
func groupBy(ctx context.Context, db *gorm.DB, column string) ([]GroupCount, error) {
	var out []GroupCount
	err := db.WithContext(ctx).
		Raw("SELECT " + column + " AS label, COUNT(*) AS n FROM messages GROUP BY " + column).
		Scan(&out).Error
	return out, err
}

// MessagesStats returns the total number of messages and the greatest
// UpdatedAt among them (nil when the table is empty). Together they change
// whenever a message is added or classified.
func MessagesStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Message{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
