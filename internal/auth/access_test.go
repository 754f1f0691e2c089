package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmacase/farmacase/internal/database"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

type fixture struct {
	eval       *Evaluator
	houses     *store.HouseStore
	identities *store.IdentityStore
	users      *store.UserStore
	meds       *store.MedicationStore
}

func setupEvaluator(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		houses:     store.NewHouseStore(db),
		identities: store.NewIdentityStore(db),
		users:      store.NewUserStore(db),
		meds:       store.NewMedicationStore(db),
	}
	f.identities.SetHashCost(bcrypt.MinCost)
	f.eval = NewEvaluator(f.users, f.houses, f.meds)
	return f
}

func (f *fixture) house(t *testing.T, name string) int64 {
	t.Helper()
	s := func(v string) *string { return &v }
	h, err := f.houses.Create(store.HouseInput{Name: s(name), Address: s("a"), City: s("c"), Region: s("r")})
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	return h.ID
}

// actor creates an identity and, when role is set, an app user assigned to houseIDs.
func (f *fixture) actor(t *testing.T, email, tag string, role model.Role, houseIDs ...int64) Actor {
	t.Helper()
	i, err := f.identities.Create(store.IdentityInput{Login: email, Email: email, Password: "pw", RoleTag: tag})
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if role != "" {
		if _, err := f.users.Create(store.UserInput{IdentityID: i.ID, Role: role, HouseIDs: houseIDs}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	return ActorFromIdentity(i)
}

func (f *fixture) medication(t *testing.T, houseID int64) int64 {
	t.Helper()
	name, ingredient, exp := "Aspirina", "ASA", "2031-01-01"
	m, err := f.meds.Create(store.MedicationInput{
		HouseID: &houseID, CommercialName: &name, ActiveIngredient: &ingredient, ExpirationDate: &exp,
	}, 1)
	if err != nil {
		t.Fatalf("create medication: %v", err)
	}
	return m.ID
}

func mustBool(t *testing.T, got bool, err error, want bool, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
	if got != want {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func TestIsAdmin(t *testing.T) {
	f := setupEvaluator(t)
	byCapability := f.actor(t, "cap@example.com", model.RoleTagAdmin, "")
	byRole := f.actor(t, "role@example.com", "", model.RoleAdmin)
	viewer := f.actor(t, "viewer@example.com", model.RoleTagViewer, model.RoleViewer)

	ok, err := f.eval.IsAdmin(byCapability)
	mustBool(t, ok, err, true, "capability admin")
	ok, err = f.eval.IsAdmin(byRole)
	mustBool(t, ok, err, true, "stored admin")
	ok, err = f.eval.IsAdmin(viewer)
	mustBool(t, ok, err, false, "viewer")
}

func TestRoleOfFallsBackToCapabilities(t *testing.T) {
	f := setupEvaluator(t)
	noUser := f.actor(t, "m@example.com", model.RoleTagManager, "")
	stored := f.actor(t, "v@example.com", model.RoleTagManager, model.RoleViewer)

	role, err := f.eval.RoleOf(noUser)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if role != model.RoleManager {
		t.Errorf("role = %q, want manager from capability", role)
	}

	role, err = f.eval.RoleOf(stored)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if role != model.RoleViewer {
		t.Errorf("role = %q, want stored viewer", role)
	}
}

func TestHousesVisibleTo(t *testing.T) {
	f := setupEvaluator(t)
	h1 := f.house(t, "Bravo")
	h2 := f.house(t, "Alfa")
	admin := f.actor(t, "admin@example.com", "", model.RoleAdmin)
	viewer := f.actor(t, "viewer@example.com", "", model.RoleViewer, h1)
	loner := f.actor(t, "loner@example.com", "", model.RoleManager)
	stranger := f.actor(t, "stranger@example.com", "", "")

	all, err := f.eval.HousesVisibleTo(admin)
	if err != nil {
		t.Fatalf("visible to admin: %v", err)
	}
	if len(all) != 2 || all[0].ID != h2 {
		t.Errorf("admin houses = %+v, want both ordered by name", all)
	}

	mine, err := f.eval.HousesVisibleTo(viewer)
	if err != nil {
		t.Fatalf("visible to viewer: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != h1 {
		t.Errorf("viewer houses = %+v, want only Bravo", mine)
	}

	for _, a := range []Actor{loner, stranger} {
		none, err := f.eval.HousesVisibleTo(a)
		if err != nil {
			t.Fatalf("visible: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("houses = %+v, want none", none)
		}
	}
}

func TestScopeOf(t *testing.T) {
	f := setupEvaluator(t)
	h1 := f.house(t, "Uno")
	h2 := f.house(t, "Due")
	admin := f.actor(t, "admin@example.com", model.RoleTagAdmin, "")
	viewer := f.actor(t, "viewer@example.com", "", model.RoleViewer, h1)

	s, err := f.eval.ScopeOf(admin)
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	if !s.All || !s.Contains(h2) {
		t.Errorf("admin scope = %+v, want all", s)
	}

	s, err = f.eval.ScopeOf(viewer)
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	if s.All || !s.Contains(h1) || s.Contains(h2) {
		t.Errorf("viewer scope = %+v, want only %d", s, h1)
	}
}

func TestHousePermissions(t *testing.T) {
	f := setupEvaluator(t)
	h1 := f.house(t, "H1")
	h2 := f.house(t, "H2")
	manager := f.actor(t, "m@example.com", "", model.RoleManager, h1)
	viewer := f.actor(t, "v@example.com", "", model.RoleViewer, h1)
	admin := f.actor(t, "a@example.com", "", model.RoleAdmin)

	tests := []struct {
		name   string
		actor  Actor
		house  int64
		view   bool
		manage bool
	}{
		{"manager own house", manager, h1, true, true},
		{"manager other house", manager, h2, false, false},
		{"viewer own house", viewer, h1, true, false},
		{"viewer other house", viewer, h2, false, false},
		{"admin any house", admin, h2, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.eval.CanViewHouse(tt.actor, tt.house)
			mustBool(t, ok, err, tt.view, "CanViewHouse")
			ok, err = f.eval.CanManageHouse(tt.actor, tt.house)
			mustBool(t, ok, err, tt.manage, "CanManageHouse")
		})
	}
}

func TestMedicationPermissions(t *testing.T) {
	f := setupEvaluator(t)
	h1 := f.house(t, "H1")
	h2 := f.house(t, "H2")
	manager := f.actor(t, "m@example.com", "", model.RoleManager, h1)
	viewer := f.actor(t, "v@example.com", "", model.RoleViewer, h1)
	m1 := f.medication(t, h1)
	m2 := f.medication(t, h2)

	ok, err := f.eval.CanManageMedication(manager, MedicationAccess{HouseID: h1})
	mustBool(t, ok, err, true, "manager create in H1")
	ok, err = f.eval.CanManageMedication(manager, MedicationAccess{HouseID: h2})
	mustBool(t, ok, err, false, "manager create in H2")
	ok, err = f.eval.CanManageMedication(manager, MedicationAccess{MedicationID: m1})
	mustBool(t, ok, err, true, "manager update H1 medication")
	ok, err = f.eval.CanManageMedication(manager, MedicationAccess{MedicationID: m2})
	mustBool(t, ok, err, false, "manager update H2 medication")
	ok, err = f.eval.CanManageMedication(manager, MedicationAccess{MedicationID: 999})
	mustBool(t, ok, err, false, "missing medication")
	ok, err = f.eval.CanManageMedication(viewer, MedicationAccess{MedicationID: m1})
	mustBool(t, ok, err, false, "viewer update")

	ok, err = f.eval.CanViewMedication(viewer, m1)
	mustBool(t, ok, err, true, "viewer read H1 medication")
	ok, err = f.eval.CanViewMedication(viewer, m2)
	mustBool(t, ok, err, false, "viewer read H2 medication")
	ok, err = f.eval.CanViewMedication(viewer, 999)
	mustBool(t, ok, err, false, "viewer read missing medication")
}

func TestCanManageUsers(t *testing.T) {
	f := setupEvaluator(t)
	admin := f.actor(t, "a@example.com", "", model.RoleAdmin)
	manager := f.actor(t, "m@example.com", "", model.RoleManager)

	ok, err := f.eval.CanManageUsers(admin)
	mustBool(t, ok, err, true, "admin")
	ok, err = f.eval.CanManageUsers(manager)
	mustBool(t, ok, err, false, "manager")
}
