package domain

import "time"

// Idempotency scopes.
const (
	ScopeWebhook = "webhook" // keyed by the provider message id
	ScopeAPI     = "api"     // keyed by the Idempotency-Key header
)

// Idempotency records that an ingestion keyed by (scope, key) already produced
// a message. Redelivered webhooks and retried API calls are answered from it
// instead of saving the message a second time.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	MessageID string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
