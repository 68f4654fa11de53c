// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// ErrNotFound is returned when a lookup or update matches no row.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateMessage inserts an unclassified message. A zero receivedAt is
// replaced by the current time.
func CreateMessage(ctx context.Context, db *gorm.DB, text, sender, externalRef string, receivedAt time.Time) (*domain.Message, error) {
	now := time.Now().UTC()
	if receivedAt.IsZero() {
		receivedAt = now
	}
	m := &domain.Message{
		ID:          uuid.NewString(),
		Text:        text,
		Sender:      sender,
		ExternalRef: externalRef,
		ReceivedAt:  receivedAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// UpdateClassification overwrites sentiment, topic and summary of message id.
// It returns ErrNotFound when no row matches.
func UpdateClassification(ctx context.Context, db *gorm.DB, id string, c domain.Classification) error {
	sentiment, topic, summary := string(c.Sentiment), string(c.Topic), c.Summary
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sentiment":  sentiment,
			"topic":      topic,
			"summary":    summary,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM messages").Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a page ordered newest first (ReceivedAt DESC, ID ASC).
func ListMessagesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Order("received_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
