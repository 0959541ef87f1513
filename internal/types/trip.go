package types

import (
	"time"

	"github.com/google/uuid"
)

// Trip is one planned journey owned by exactly one user. Cover may be nil when
// the photo search returned no results.
type Trip struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Subtitle  *string   `json:"subtitle,omitempty"`
	TripType  *string   `json:"trip_type,omitempty"`
	Completed bool      `json:"completed"`
	Cover     *string   `json:"cover,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail is one itinerary segment derived from a generated outline.
// An empty HTML body means "not yet enriched": readers must treat it as a
// sentinel that triggers on-demand generation, never as valid content.
type Detail struct {
	ID                uuid.UUID `json:"id"`
	TripID            uuid.UUID `json:"trip_id"`
	Title             string    `json:"title"`
	HTML              string    `json:"html"`
	EstimatedDuration int       `json:"estimated_duration"` // minutes, never negative
	Language          string    `json:"language"`
	Completed         bool      `json:"completed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PendingEnrichment reports whether the detail still needs its HTML body
// generated.
func (d *Detail) PendingEnrichment() bool {
	return d.HTML == ""
}
