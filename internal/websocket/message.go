package websocket

// Message is the envelope pushed to activity-feed clients. Action
// carries the event type ("item.created", "request.created",
// "item.expired") and Payload the event record itself.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}
