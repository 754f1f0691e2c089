package store

import (
	"database/sql"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmacase/farmacase/internal/database"
	"github.com/farmacase/farmacase/internal/model"
)

type testStores struct {
	db            *sql.DB
	houses        *HouseStore
	identities    *IdentityStore
	users         *UserStore
	medications   *MedicationStore
	history       *HistoryStore
	notifications *NotificationStore
	sessions      *SessionStore
}

func setupTestDB(t *testing.T) *testStores {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	identities := NewIdentityStore(db)
	identities.SetHashCost(bcrypt.MinCost)
	return &testStores{
		db:            db,
		houses:        NewHouseStore(db),
		identities:    identities,
		users:         NewUserStore(db),
		medications:   NewMedicationStore(db),
		history:       NewHistoryStore(db),
		notifications: NewNotificationStore(db),
		sessions:      NewSessionStore(db),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func mustHouse(t *testing.T, ts *testStores, name string) *model.House {
	t.Helper()
	h, err := ts.houses.Create(HouseInput{
		Name:    strPtr(name),
		Address: strPtr("Via Roma 1"),
		City:    strPtr("Torino"),
		Region:  strPtr("Piemonte"),
	})
	if err != nil {
		t.Fatalf("create house %q: %v", name, err)
	}
	return h
}

func mustIdentity(t *testing.T, ts *testStores, email, display string) *model.Identity {
	t.Helper()
	i, err := ts.identities.Create(IdentityInput{
		Login:       email,
		Email:       email,
		DisplayName: display,
		Password:    "secret-password",
	})
	if err != nil {
		t.Fatalf("create identity %q: %v", email, err)
	}
	return i
}

func mustUser(t *testing.T, ts *testStores, email string, role model.Role, houseIDs ...int64) *model.User {
	t.Helper()
	i := mustIdentity(t, ts, email, email)
	u, err := ts.users.Create(UserInput{IdentityID: i.ID, Role: role, HouseIDs: houseIDs})
	if err != nil {
		t.Fatalf("create user %q: %v", email, err)
	}
	return u
}

func mustMedication(t *testing.T, ts *testStores, houseID int64, name string, total, min int, expires string) *model.Medication {
	t.Helper()
	m, err := ts.medications.Create(MedicationInput{
		HouseID:          int64Ptr(houseID),
		CommercialName:   strPtr(name),
		ActiveIngredient: strPtr(name + " base"),
		TotalQuantity:    intPtr(total),
		MinQuantityAlert: intPtr(min),
		ExpirationDate:   strPtr(expires),
	}, 1)
	if err != nil {
		t.Fatalf("create medication %q: %v", name, err)
	}
	return m
}
