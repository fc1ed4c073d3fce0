package models

import "time"

// Memory is a free-text journal entry.
type Memory struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
