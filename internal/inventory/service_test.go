package inventory

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/database"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type env struct {
	svc        *Service
	houses     *store.HouseStore
	identities *store.IdentityStore
	users      *store.UserStore
	meds       *store.MedicationStore
	history    *store.HistoryStore
	admin      auth.Actor
}

func setupService(t *testing.T) *env {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		houses:     store.NewHouseStore(db),
		identities: store.NewIdentityStore(db),
		users:      store.NewUserStore(db),
		meds:       store.NewMedicationStore(db),
		history:    store.NewHistoryStore(db),
	}
	e.identities.SetHashCost(bcrypt.MinCost)
	access := auth.NewEvaluator(e.users, e.houses, e.meds)
	e.svc = NewService(access, Stores{
		Houses:      e.houses,
		Identities:  e.identities,
		Users:       e.users,
		Medications: e.meds,
		History:     e.history,
	}, Config{LookaheadDays: 60, Location: time.UTC}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.svc.SetClock(func() time.Time { return fixedNow })

	root, err := e.identities.Create(store.IdentityInput{
		Login: "root", Email: "root@example.com", Password: "pw", IsAdministrator: true,
	})
	require.NoError(t, err)
	e.admin = auth.ActorFromIdentity(root)
	return e
}

func ptr[T any](v T) *T { return &v }

func (e *env) house(t *testing.T, name string) int64 {
	t.Helper()
	h, err := e.svc.CreateHouse(e.admin, store.HouseInput{
		Name: ptr(name), Address: ptr("Via Po 2"), City: ptr("Torino"), Region: ptr("Piemonte"),
	})
	require.NoError(t, err)
	return h.ID
}

func (e *env) member(t *testing.T, email string, role model.Role, houseIDs ...int64) auth.Actor {
	t.Helper()
	created, err := e.svc.CreateUser(e.admin, NewUser{
		Email: email, FirstName: "Test", LastName: string(role), Role: role, HouseIDs: houseIDs,
	})
	require.NoError(t, err)
	i, err := e.identities.GetByID(created.IdentityID)
	require.NoError(t, err)
	return auth.ActorFromIdentity(i)
}

func (e *env) medication(t *testing.T, houseID int64, name string, total, min int, expires string) *model.Medication {
	t.Helper()
	m, err := e.svc.CreateMedication(e.admin, store.MedicationInput{
		HouseID:          ptr(houseID),
		CommercialName:   ptr(name),
		ActiveIngredient: ptr("principio " + name),
		TotalQuantity:    ptr(total),
		MinQuantityAlert: ptr(min),
		ExpirationDate:   ptr(expires),
	})
	require.NoError(t, err)
	return m
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}
