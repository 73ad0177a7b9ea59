package models

import (
	"encoding/json"
	"time"
)

// AuditLog is a persisted record of a mutating action.
type AuditLog struct {
	ID        int64           `json:"id"`
	UserID    *int64          `json:"user_id"`
	Action    string          `json:"action"`
	Resource  string          `json:"resource"`
	Details   json.RawMessage `json:"details,omitempty" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
}
