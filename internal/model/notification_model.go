package model

import "time"

// Notification is a transient UI notification pushed over websocket.
// Document lifecycle progress (ingested, embedded, deleted) is the only
// producer today.
type Notification struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
