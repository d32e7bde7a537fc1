package session

import (
	"time"

	"gorm.io/datatypes"
)

type (
	// Session is one conversation scope. Cleanup is driven by
	// LastActivity, not CreatedAt, so active sessions survive sweeps.
	Session struct {
		ID           string `gorm:"primaryKey" json:"session_id"`
		CreatedAt    time.Time `json:"created_at"`
		LastActivity time.Time `gorm:"index" json:"last_activity"`

		Interactions []Interaction `gorm:"foreignKey:SessionID" json:"-"`
	}

	// Interaction is one prompt/dispatch/result record. Result holds the
	// packaged execution outcome as JSON.
	Interaction struct {
		ID        uint      `gorm:"primarykey" json:"-"`
		CreatedAt time.Time `json:"timestamp"`

		SessionID    string                   `gorm:"index" json:"-"`
		Prompt       string                   `json:"prompt"`
		FunctionName string                   `json:"function,omitempty"`
		Success      bool                     `json:"success"`
		Result       datatypes.JSONType[any]  `json:"result"`
	}
)
