package conversation

// CreateConversationRequest opens a chat thread about one trip.
type CreateConversationRequest struct {
	TripID string `json:"trip_id"`
	Title  string `json:"title"`
}

// SendQueryRequest asks the assistant a follow-up question in an existing
// conversation.
type SendQueryRequest struct {
	Query string `json:"query"`
}
