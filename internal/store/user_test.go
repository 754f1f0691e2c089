package store

import (
	"testing"

	"github.com/farmacase/farmacase/internal/model"
)

func TestUserCreateWithHouses(t *testing.T) {
	ts := setupTestDB(t)
	h1 := mustHouse(t, ts, "Zeta")
	h2 := mustHouse(t, ts, "Alfa")
	i := mustIdentity(t, ts, "anna@example.com", "Anna Rossi")

	u, err := ts.users.Create(UserInput{
		IdentityID: i.ID,
		Role:       model.RoleManager,
		Phone:      "333",
		HouseIDs:   []int64{h1.ID, 999, h2.ID, h1.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "anna@example.com" || u.DisplayName != "Anna Rossi" {
		t.Errorf("identity fields = (%q, %q), want read through", u.Email, u.DisplayName)
	}
	if len(u.Houses) != 2 {
		t.Fatalf("houses = %+v, want 2 (unknown id skipped)", u.Houses)
	}
	if u.Houses[0].Name != "Alfa" {
		t.Errorf("houses[0] = %q, want Alfa", u.Houses[0].Name)
	}
}

func TestUserGetByIdentityID(t *testing.T) {
	ts := setupTestDB(t)
	u := mustUser(t, ts, "anna@example.com", model.RoleViewer)

	got, err := ts.users.GetByIdentityID(u.IdentityID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("got = %+v, want user %d", got, u.ID)
	}
	if got.Houses == nil {
		t.Error("expected non-nil houses slice")
	}

	missing, err := ts.users.GetByIdentityID(999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown identity")
	}
}

func TestUserUpdateReplacesHouses(t *testing.T) {
	ts := setupTestDB(t)
	h1 := mustHouse(t, ts, "Uno")
	h2 := mustHouse(t, ts, "Due")
	u := mustUser(t, ts, "anna@example.com", model.RoleViewer, h1.ID)

	role := model.RoleManager
	updated, err := ts.users.Update(u.ID, UserUpdate{Role: &role, HouseIDs: []int64{h2.ID}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != model.RoleManager {
		t.Errorf("role = %q, want manager", updated.Role)
	}
	if len(updated.Houses) != 1 || updated.Houses[0].ID != h2.ID {
		t.Errorf("houses = %+v, want only Due", updated.Houses)
	}

	kept, err := ts.users.Update(u.ID, UserUpdate{Phone: strPtr("555")})
	if err != nil {
		t.Fatalf("update phone: %v", err)
	}
	if len(kept.Houses) != 1 {
		t.Errorf("houses = %+v, want unchanged when HouseIDs is nil", kept.Houses)
	}
}

func TestUserUpdateWritesIdentityInSameTransaction(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Uno")
	u := mustUser(t, ts, "anna@example.com", model.RoleViewer, h.ID)

	hash, err := ts.identities.HashPassword("nuova-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	role := model.RoleManager
	updated, err := ts.users.Update(u.ID, UserUpdate{
		Role:     &role,
		Identity: &IdentityUpdate{FirstName: strPtr("Annalisa"), RoleTag: strPtr(model.RoleTagManager), PasswordHash: &hash},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != model.RoleManager || updated.FirstName != "Annalisa" {
		t.Errorf("updated = %+v, want manager Annalisa", updated)
	}
	got, err := ts.identities.Authenticate("anna@example.com", "nuova-password")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got == nil || got.RoleTag != model.RoleTagManager {
		t.Errorf("identity = %+v, want new password and manager tag", got)
	}
}

func TestUserUpdateFailureLeavesIdentityUntouched(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Uno")
	u := mustUser(t, ts, "anna@example.com", model.RoleViewer, h.ID)
	before, err := ts.identities.GetByID(u.IdentityID)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}

	bad := model.Role("superuser")
	_, err = ts.users.Update(u.ID, UserUpdate{
		Role:     &bad,
		Identity: &IdentityUpdate{FirstName: strPtr("Cambiato"), Email: strPtr("altro@example.com")},
	})
	if err == nil {
		t.Fatal("expected the role check constraint to fail")
	}

	after, err := ts.identities.GetByID(u.IdentityID)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if after.FirstName != before.FirstName || after.Email != before.Email {
		t.Errorf("identity changed to %q <%s>, want %q <%s>", after.FirstName, after.Email, before.FirstName, before.Email)
	}
}

func TestUserUpdateUnknownUser(t *testing.T) {
	ts := setupTestDB(t)
	got, err := ts.users.Update(999, UserUpdate{Identity: &IdentityUpdate{FirstName: strPtr("X")}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for unknown user", got)
	}
}

func TestUserDeleteKeepsIdentity(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Uno")
	u := mustUser(t, ts, "anna@example.com", model.RoleViewer, h.ID)

	if err := ts.users.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ts.users.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected user to be gone")
	}
	i, err := ts.identities.GetByID(u.IdentityID)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if i == nil {
		t.Error("expected identity to survive user deletion")
	}
	assigned, err := ts.users.IsAssigned(u.ID, h.ID)
	if err != nil {
		t.Fatalf("is assigned: %v", err)
	}
	if assigned {
		t.Error("expected assignment to be removed")
	}
}

func TestUserListFilters(t *testing.T) {
	ts := setupTestDB(t)
	h1 := mustHouse(t, ts, "Uno")
	h2 := mustHouse(t, ts, "Due")
	carla := mustUser(t, ts, "carla@example.com", model.RoleViewer, h1.ID)
	bruno := mustUser(t, ts, "bruno@example.com", model.RoleManager, h1.ID, h2.ID)
	mustUser(t, ts, "aldo@example.com", model.RoleAdmin)

	all, err := ts.users.List(UserFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Email != "aldo@example.com" {
		t.Errorf("all = %+v, want display name order", all)
	}

	inH1, err := ts.users.List(UserFilter{HouseID: int64Ptr(h1.ID)})
	if err != nil {
		t.Fatalf("list by house: %v", err)
	}
	if len(inH1) != 2 || inH1[0].ID != bruno.ID || inH1[1].ID != carla.ID {
		t.Errorf("by house = %+v, want bruno, carla", inH1)
	}
	if len(inH1[0].Houses) != 2 {
		t.Errorf("bruno houses = %+v, want both houses", inH1[0].Houses)
	}

	managers, err := ts.users.List(UserFilter{Role: model.RoleManager})
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(managers) != 1 || managers[0].ID != bruno.ID {
		t.Errorf("managers = %+v, want bruno", managers)
	}
}

func TestUserRecipients(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Uno")
	mustUser(t, ts, "viewer@example.com", model.RoleViewer, h.ID)
	mustUser(t, ts, "admin@example.com", model.RoleAdmin)

	recipients, err := ts.users.ListRecipientsForHouse(h.ID)
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if len(recipients) != 1 || recipients[0].Email != "viewer@example.com" {
		t.Errorf("recipients = %+v, want the assigned viewer", recipients)
	}

	admins, err := ts.users.ListAdminRecipients()
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "admin@example.com" {
		t.Errorf("admins = %+v, want the admin", admins)
	}
}
