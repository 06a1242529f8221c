package services

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/models"
	"github.com/rationbridge/rationbridge-be/internal/websocket"
)

// EventServiceProvider defines the interface for activity events.
type EventServiceProvider interface {
	Record(eventType, level, message string, itemID *string)
	Recent(limit int) ([]models.Event, error)
}

// EventService records marketplace activity and pushes it to connected
// feed clients.
type EventService struct {
	db  *sql.DB
	hub *websocket.Hub
}

// NewEventService creates a new EventService. hub may be nil when no
// live feed is attached.
func NewEventService(db *sql.DB, hub *websocket.Hub) *EventService {
	return &EventService{db: db, hub: hub}
}

// Record stores an activity event and broadcasts it. Failures are
// logged, not returned: activity logging must never fail a request.
func (s *EventService) Record(eventType, level, message string, itemID *string) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		ItemID:    itemID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.db.Exec(
		"INSERT INTO events (id, type, level, message, item_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.ItemID, event.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to store activity event")
	}

	if s.hub != nil {
		payload, err := json.Marshal(websocket.Message{Action: eventType, Payload: event})
		if err == nil {
			s.hub.Publish(payload)
		}
	}
}

// Recent retrieves the most recent activity events.
func (s *EventService) Recent(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, level, message, item_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ItemID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
