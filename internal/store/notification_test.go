package store

import (
	"testing"

	"github.com/farmacase/farmacase/internal/model"
)

func TestNotificationRecordAndList(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Casa Nord")
	u := mustUser(t, ts, "anna@example.com", model.RoleViewer, h.ID)
	exp := mustMedication(t, ts, h.ID, "Aspirina", 50, 5, "2026-11-01")
	low := mustMedication(t, ts, h.ID, "Brufen", 1, 5, "2031-01-01")

	n, err := ts.notifications.Record(u.ID, []model.Medication{*exp}, []model.Medication{*low})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if n != 2 {
		t.Errorf("recorded = %d, want 2", n)
	}

	list, err := ts.notifications.ListForUser(u.ID, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Type != model.NotificationLowQuantity || list[0].CommercialName != "Brufen" {
		t.Errorf("list[0] = %+v, want newest low quantity row first", list[0])
	}
	if list[1].HouseName != "Casa Nord" || list[1].ReadStatus != model.ReadStatusUnread {
		t.Errorf("list[1] = %+v, want unread Casa Nord row", list[1])
	}

	limited, err := ts.notifications.ListForUser(u.ID, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len = %d, want 1", len(limited))
	}
}

func TestNotificationReadFlagIsShared(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Casa Nord")
	a := mustUser(t, ts, "a@example.com", model.RoleViewer, h.ID)
	b := mustUser(t, ts, "b@example.com", model.RoleViewer, h.ID)
	m := mustMedication(t, ts, h.ID, "Brufen", 1, 5, "2031-01-01")

	if _, err := ts.notifications.Record(a.ID, nil, []model.Medication{*m}); err != nil {
		t.Fatalf("record: %v", err)
	}
	list, err := ts.notifications.ListForUser(a.ID, 20)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v; want one row", list, err)
	}
	id := list[0].ID

	isB, err := ts.notifications.IsRecipient(id, b.ID)
	if err != nil {
		t.Fatalf("is recipient: %v", err)
	}
	if isB {
		t.Error("b must not be a recipient")
	}

	if err := ts.notifications.MarkRead(id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := ts.notifications.CountUnread(a.ID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}

func TestNotificationsCascadeWithMedication(t *testing.T) {
	ts := setupTestDB(t)
	h := mustHouse(t, ts, "Casa Nord")
	u := mustUser(t, ts, "a@example.com", model.RoleViewer, h.ID)
	m := mustMedication(t, ts, h.ID, "Brufen", 1, 5, "2031-01-01")

	if _, err := ts.notifications.Record(u.ID, nil, []model.Medication{*m}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := ts.medications.Delete(m.ID, 1); err != nil {
		t.Fatalf("delete medication: %v", err)
	}
	unread, err := ts.notifications.CountUnread(u.ID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d, want 0 after medication removal", unread)
	}
}
