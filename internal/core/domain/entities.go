package domain

import (
	"time"
)

// Zone is a named operational area drawn on the dashboard map.
type Zone struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Points      []Vertex  `json:"points"`
	Metrics     *Metrics  `json:"metrics,omitempty"` // computed field
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ZonePayload is the normalized body handed to create/update.
// Points never carry a duplicated closing vertex.
type ZonePayload struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Points      []Vertex `json:"points"`
}

// ZoneEventType names a zone lifecycle change.
type ZoneEventType string

const (
	ZoneCreated ZoneEventType = "created"
	ZoneUpdated ZoneEventType = "updated"
	ZoneDeleted ZoneEventType = "deleted"
)

// ZoneEvent is published after a zone change has been committed.
type ZoneEvent struct {
	Type   ZoneEventType `json:"type"`
	ZoneID int64         `json:"zone_id"`
	Name   string        `json:"name,omitempty"`
	Time   time.Time     `json:"time"`
	Origin string        `json:"origin,omitempty"` // writer tag, see usecases.WithOrigin
}
