package models

// Event represents a loggable marketplace activity entry.
type Event struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`  // e.g., "item.created", "request.created"
	Level     string  `json:"level"` // e.g., "info", "warn", "error"
	Message   string  `json:"message"`
	ItemID    *string `json:"item_id,omitempty"` // Nullable for system-wide events
	CreatedAt string  `json:"created_at"`
}
