package services

import (
	"database/sql"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, config *string) error
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService records an audit trail of config changes and alerts.
type EventService struct {
	db  *sql.DB
	hub *websocket.Hub
}

// NewEventService creates a new EventService. hub may be nil when nothing
// listens for live events.
func NewEventService(db *sql.DB, hub *websocket.Hub) *EventService {
	return &EventService{db: db, hub: hub}
}

// CreateEvent logs a new event to the database and pushes it to connected clients.
func (s *EventService) CreateEvent(eventType, level, message string, config *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Config:    config,
		CreatedAt: time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, type, level, message, config, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(event.ID, event.Type, event.Level, event.Message, event.Config, event.CreatedAt); err != nil {
		return err
	}

	log.Debug().Str("event_type", eventType).Str("level", level).Msg(message)
	if s.hub != nil {
		scope := ""
		if config != nil {
			scope = *config
		}
		s.hub.Publish(scope, websocket.Message{Action: "event", Payload: event})
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, config, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var config sql.NullString
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &config, &event.CreatedAt); err != nil {
			return nil, err
		}
		if config.Valid {
			c := config.String
			event.Config = &c
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
