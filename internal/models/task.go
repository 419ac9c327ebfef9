package models

import (
	"encoding/json"
	"time"
)

type Task struct {
	ID          int64
	UserID      string
	ListID      int64
	Title       string
	Description *string
	DueDate     *time.Time
	// RecurringConfig is an opaque JSON recurrence rule. Nil means none.
	RecurringConfig json.RawMessage
	Completed       bool
	Starred         bool
	Position        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
