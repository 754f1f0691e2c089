package store

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseGetByIDWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM houses WHERE id = ?").
		WithArgs(int64(3)).
		WillReturnError(errors.New("disk I/O error"))

	h, err := NewHouseStore(db).GetByID(3)
	assert.Nil(t, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get house")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationCreateRollsBackWhenHistoryFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "house_id", "commercial_name", "active_ingredient", "description",
		"leaflet_url", "package_count", "total_quantity", "expiration_date", "min_quantity_alert",
		"created_by", "updated_by", "created_at", "updated_at"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO medications").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT (.+) FROM medications m WHERE m.id = ?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(5, 1, "Aspirina", "Acido acetilsalicilico", "", "", 1, 10, "2031-01-01", 2, 9, 9, now, now))
	mock.ExpectExec("INSERT INTO medication_history").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	m, err := NewMedicationStore(db).Create(MedicationInput{
		HouseID:          int64Ptr(1),
		CommercialName:   strPtr("Aspirina"),
		ActiveIngredient: strPtr("Acido acetilsalicilico"),
		ExpirationDate:   strPtr("2031-01-01"),
	}, 9)
	assert.Nil(t, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCountUnreadWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM notifications").
		WillReturnError(errors.New("database is locked"))

	_, err = NewNotificationStore(db).CountUnread(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count unread notifications")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateRollsBackIdentityWhenAssignmentsFail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT identity_id FROM users WHERE id = ?").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"identity_id"}).AddRow(11))
	mock.ExpectExec("UPDATE identities SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_houses WHERE user_id = ?").
		WithArgs(int64(4)).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	u, err := NewUserStore(db).Update(4, UserUpdate{
		HouseIDs: []int64{2},
		Identity: &IdentityUpdate{FirstName: strPtr("Anna")},
	})
	assert.Nil(t, u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear assignments")
	assert.NoError(t, mock.ExpectationsWereMet())
}
