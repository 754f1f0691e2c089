package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/farmacase/farmacase/internal/model"
)

// HistoryStore reads the append-only medication change log. Entries are
// written by MedicationStore inside the mutating transaction.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func scanHistory(scanner interface{ Scan(...any) error }) (*model.HistoryEntry, error) {
	var h model.HistoryEntry
	err := scanner.Scan(&h.ID, &h.MedicationID, &h.HouseID, &h.Action, &h.ActorID, &h.Details, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const historyCols = `id, medication_id, house_id, action, actor_id, details, created_at`

// ListByMedication returns the entries for a medication, oldest first.
func (s *HistoryStore) ListByMedication(medicationID int64) ([]model.HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+historyCols+` FROM medication_history WHERE medication_id = ? ORDER BY id ASC`,
		medicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}

// appendHistory records one entry with a JSON snapshot of the medication.
func appendHistory(tx *sql.Tx, action string, actorID int64, m *model.Medication) error {
	details, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal history details: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO medication_history (medication_id, house_id, action, actor_id, details) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.HouseID, action, actorID, string(details),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}
