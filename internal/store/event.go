package store

import (
	"database/sql"
	"fmt"

	"github.com/farmacase/farmacase/internal/model"
)

// EventStore keeps the notification activity log across restarts.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// AppendEvent stores e and prunes everything but the newest keep events.
func (s *EventStore) AppendEvent(e model.NotificationEvent, keep int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO notification_events (type, message, created_at) VALUES (?, ?, ?)`,
		e.Type, e.Message, e.Timestamp.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if keep > 0 {
		_, err = tx.Exec(`DELETE FROM notification_events WHERE id NOT IN (
			SELECT id FROM notification_events ORDER BY id DESC LIMIT ?)`, keep)
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events, most recent first.
func (s *EventStore) RecentEvents(limit int) ([]model.NotificationEvent, error) {
	rows, err := s.db.Query(`SELECT type, message, created_at FROM notification_events
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.NotificationEvent
	for rows.Next() {
		var e model.NotificationEvent
		if err := rows.Scan(&e.Type, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
