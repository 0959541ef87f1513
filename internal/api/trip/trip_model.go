package trip

import (
	"github.com/tripforge/tripforge/internal/types"
)

// GenerateTripRequest asks for a full AI-generated itinerary.
type GenerateTripRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"` // destination
	Budget   int    `json:"budget"`
	Language string `json:"language"`
	// EagerEnrich generates every detail's HTML body immediately after the
	// outline is parsed, sequentially in outline order. When false the HTML
	// is produced lazily on first read.
	EagerEnrich bool `json:"eager_enrich"`
}

// StoreTripRequest creates a trip manually, without outline generation.
type StoreTripRequest struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	TripType *string `json:"trip_type,omitempty"`
}

// UpdateTripContentRequest replaces a trip's free-text content (subtitle).
type UpdateTripContentRequest struct {
	NewContent string `json:"new_content"`
}

// GenerateTripOutlineResponse returns the newly created trip and its parsed
// details.
type GenerateTripOutlineResponse struct {
	Trip    *types.Trip     `json:"trip"`
	Details []*types.Detail `json:"details"`
}
