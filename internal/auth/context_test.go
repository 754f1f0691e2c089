package auth

import (
	"context"
	"testing"

	"github.com/farmacase/farmacase/internal/model"
)

func TestWithActorAndActorFrom(t *testing.T) {
	a := Actor{
		IdentityID:   1,
		Email:        "anna@example.com",
		Capabilities: model.Capabilities{ViewMedications: true},
	}

	ctx := WithActor(context.Background(), a)
	got, ok := ActorFrom(ctx)
	if !ok {
		t.Fatal("expected Actor in context")
	}
	if got.IdentityID != 1 {
		t.Errorf("IdentityID = %d, want 1", got.IdentityID)
	}
	if got.Email != "anna@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "anna@example.com")
	}
	if !got.Capabilities.ViewMedications {
		t.Error("expected view capability to survive the round trip")
	}
}

func TestActorFromMissing(t *testing.T) {
	if _, ok := ActorFrom(context.Background()); ok {
		t.Error("expected false for missing Actor")
	}
	if id := IdentityID(context.Background()); id != 0 {
		t.Errorf("IdentityID = %d, want 0", id)
	}
}

func TestActorFromIdentity(t *testing.T) {
	a := ActorFromIdentity(&model.Identity{ID: 4, Email: "m@example.com", RoleTag: model.RoleTagManager})
	if a.IdentityID != 4 {
		t.Errorf("IdentityID = %d, want 4", a.IdentityID)
	}
	if !a.Capabilities.ManageMedications || a.Capabilities.ManageAll {
		t.Errorf("capabilities = %+v, want manage medications only", a.Capabilities)
	}
}
