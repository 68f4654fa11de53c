// Package domain defines the persistence models for inbound chat messages and
// their classification. These types are mapped with GORM and form the core
// data layer of the sentiment backend.
package domain

import "time"

// Read-side sentinels for messages that have not been classified yet.
const (
	SentimentPending  = "pending"
	TopicUnclassified = "unclassified"
)

// Message is a single inbound chat message as received from the upstream
// channel. It is inserted unclassified and enriched once by the
// classification step.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned on save.
//   - Text / Sender / ExternalRef / ReceivedAt: immutable ingestion data.
//     ExternalRef holds the provider message id and may be empty.
//   - Sentiment / Topic / Summary: NULL until classified. Re-classification
//     overwrites them.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Message struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	Sender      string    `json:"sender"       gorm:"type:varchar(128);not null;index:idx_messages_sender"`
	ExternalRef string    `json:"external_ref" gorm:"type:varchar(128)"`
	ReceivedAt  time.Time `json:"received_at"  gorm:"not null;index:idx_messages_received_at"`
	Sentiment   *string   `json:"sentiment"    gorm:"type:varchar(16);index:idx_messages_sentiment"`
	Topic       *string   `json:"topic"        gorm:"type:varchar(64);index:idx_messages_topic"`
	Summary     *string   `json:"summary"      gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageView is the read model of a Message. Missing classification fields
// are replaced by the pending/unclassified sentinels so callers never see nulls.
type MessageView struct {
	ID          string    `json:"id"           example:"5f0c7e3a-2d55-4a4e-9bb1-1f6b2f0a0c11"`
	Text        string    `json:"text"         example:"El servicio fue excelente"`
	Sender      string    `json:"sender"       example:"whatsapp:+5215550001111"`
	ExternalRef string    `json:"external_ref" example:"SM0123456789abcdef"`
	ReceivedAt  time.Time `json:"received_at"`
	Sentiment   string    `json:"sentiment"    example:"positive"`
	Topic       string    `json:"topic"        example:"Customer Service"`
	Summary     string    `json:"summary"      example:"El servicio fue excelente"`
}

// View converts the stored record into its read model.
func (m Message) View() MessageView {
	v := MessageView{
		ID:          m.ID,
		Text:        m.Text,
		Sender:      m.Sender,
		ExternalRef: m.ExternalRef,
		ReceivedAt:  m.ReceivedAt,
		Sentiment:   SentimentPending,
		Topic:       TopicUnclassified,
	}
	if m.Sentiment != nil && *m.Sentiment != "" {
		v.Sentiment = *m.Sentiment
	}
	if m.Topic != nil && *m.Topic != "" {
		v.Topic = *m.Topic
	}
	if m.Summary != nil {
		v.Summary = *m.Summary
	}
	return v
}
