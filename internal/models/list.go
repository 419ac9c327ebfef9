package models

import "time"

type List struct {
	ID        int64
	UserID    string
	Name      string
	Slug      string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
