package store

import (
	"database/sql"
	"fmt"

	"github.com/farmacase/farmacase/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Record stores one notification per medication in expiring and low, each
// with userID as its recipient, in a single transaction. It returns the
// number of notifications written.
func (s *NotificationStore) Record(userID int64, expiring, low []model.Medication) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	count := 0
	write := func(kind string, meds []model.Medication) error {
		for _, m := range meds {
			result, err := tx.Exec(
				`INSERT INTO notifications (type, medication_id) VALUES (?, ?)`,
				kind, m.ID,
			)
			if err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			if _, err := tx.Exec(
				`INSERT INTO notification_recipients (notification_id, user_id) VALUES (?, ?)`,
				id, userID,
			); err != nil {
				return fmt.Errorf("insert recipient: %w", err)
			}
			count++
		}
		return nil
	}

	if err := write(model.NotificationExpiration, expiring); err != nil {
		return 0, err
	}
	if err := write(model.NotificationLowQuantity, low); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return count, nil
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationStore) ListForUser(userID int64, limit int) ([]model.UserNotification, error) {
	rows, err := s.db.Query(
		`SELECT n.id, n.type, n.medication_id, n.sent_at, n.read_status,
			m.commercial_name, m.active_ingredient, h.name
		 FROM notifications n
		 JOIN notification_recipients r ON r.notification_id = n.id
		 JOIN medications m ON m.id = n.medication_id
		 JOIN houses h ON h.id = m.house_id
		 WHERE r.user_id = ?
		 ORDER BY n.sent_at DESC, n.id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.UserNotification
	for rows.Next() {
		var n model.UserNotification
		if err := rows.Scan(&n.ID, &n.Type, &n.MedicationID, &n.SentAt, &n.ReadStatus,
			&n.CommercialName, &n.ActiveIngredient, &n.HouseName); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *NotificationStore) IsRecipient(notificationID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notification_recipients WHERE notification_id = ? AND user_id = ?`,
		notificationID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check recipient: %w", err)
	}
	return n > 0, nil
}

// MarkRead sets the read flag on the notification. The flag is shared by all
// of its recipients.
func (s *NotificationStore) MarkRead(notificationID int64) error {
	_, err := s.db.Exec(`UPDATE notifications SET read_status = ? WHERE id = ?`, model.ReadStatusRead, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationStore) CountUnread(userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications n
		 JOIN notification_recipients r ON r.notification_id = n.id
		 WHERE r.user_id = ? AND n.read_status = ?`,
		userID, model.ReadStatusUnread,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
