package models

import (
	"time"

	"github.com/portfolio-advisor/internal/types"
)

// AdvisoryRecord is a persisted advisory or chat reply
type AdvisoryRecord struct {
	ID          string          `json:"id" db:"id"`
	Address     string          `json:"address" db:"address"`
	Network     types.NetworkID `json:"network" db:"network"`
	Intent      string          `json:"intent" db:"intent"`
	UserMessage string          `json:"userMessage,omitempty" db:"user_message"`
	Response    string          `json:"response" db:"response"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
