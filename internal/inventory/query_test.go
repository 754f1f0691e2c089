package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmacase/farmacase/internal/model"
)

func ids(meds []model.Medication) []int64 {
	out := make([]int64, len(meds))
	for i, m := range meds {
		out[i] = m.ID
	}
	return out
}

func TestListMedicationsScopedToVisibleHouses(t *testing.T) {
	e := setupService(t)
	h1 := e.house(t, "H1")
	h2 := e.house(t, "H2")
	m1 := e.medication(t, h1, "Aspirina", 10, 1, "2031-01-01")
	m2 := e.medication(t, h2, "Brufen", 10, 1, "2031-01-01")
	viewer := e.member(t, "viewer@example.com", model.RoleViewer, h1)
	loner := e.member(t, "loner@example.com", model.RoleManager)

	all, err := e.svc.ListMedications(e.admin, MedicationQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{m1.ID, m2.ID}, ids(all))

	mine, err := e.svc.ListMedications(viewer, MedicationQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{m1.ID}, ids(mine))

	foreign, err := e.svc.ListMedications(viewer, MedicationQuery{HouseID: ptr(h2)})
	require.NoError(t, err)
	assert.Empty(t, foreign, "a house filter outside the visible set narrows to nothing")

	none, err := e.svc.ListMedications(loner, MedicationQuery{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	unknown, err := e.svc.ListMedications(e.admin, MedicationQuery{HouseID: ptr(int64(999))})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestListMedicationsExpiringSoonBoundaries(t *testing.T) {
	e := setupService(t)
	h := e.house(t, "H1")
	today := e.medication(t, h, "A oggi", 10, 1, "2026-10-18")
	edge := e.medication(t, h, "B limite", 10, 1, "2026-12-17")
	e.medication(t, h, "C oltre", 10, 1, "2026-12-18")
	e.medication(t, h, "D scaduto", 10, 1, "2026-10-17")

	got, err := e.svc.ListMedications(e.admin, MedicationQuery{ExpiringSoon: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{today.ID, edge.ID}, ids(got))
}

func TestListMedicationsLowQuantityBoundary(t *testing.T) {
	e := setupService(t)
	h := e.house(t, "H1")
	atThreshold := e.medication(t, h, "Uguale", 5, 5, "2031-01-01")
	e.medication(t, h, "Sopra", 6, 5, "2031-01-01")

	got, err := e.svc.ListMedications(e.admin, MedicationQuery{LowQuantity: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{atThreshold.ID}, ids(got))
}

func TestListMedicationsSearchAndCombinedFilters(t *testing.T) {
	e := setupService(t)
	h := e.house(t, "H1")
	e.medication(t, h, "Tachipirina", 50, 5, "2031-01-01")
	low := e.medication(t, h, "Tachifludec", 1, 5, "2031-01-01")

	got, err := e.svc.ListMedications(e.admin, MedicationQuery{Search: "tachi"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	both, err := e.svc.ListMedications(e.admin, MedicationQuery{Search: "TACHI", LowQuantity: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{low.ID}, ids(both))

	byIngredient, err := e.svc.ListMedications(e.admin, MedicationQuery{ActiveIngredient: "principio tachif"})
	require.NoError(t, err)
	assert.Equal(t, []int64{low.ID}, ids(byIngredient))
}

func TestListHousesScoping(t *testing.T) {
	e := setupService(t)
	h1 := e.house(t, "Bravo")
	e.house(t, "Alfa")
	viewer := e.member(t, "viewer@example.com", model.RoleViewer, h1)
	stranger := e.member(t, "stranger@example.com", model.RoleViewer)

	all, err := e.svc.ListHouses(e.admin, HouseQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alfa", all[0].Name)

	mine, err := e.svc.ListHouses(viewer, HouseQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, h1, mine[0].ID)

	none, err := e.svc.ListHouses(stranger, HouseQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)

	inactive, err := e.svc.ListHouses(e.admin, HouseQuery{Status: model.HouseStatusInactive})
	require.NoError(t, err)
	assert.Empty(t, inactive)
}

func TestListUsersAdminOnly(t *testing.T) {
	e := setupService(t)
	h := e.house(t, "H1")
	manager := e.member(t, "m@example.com", model.RoleManager, h)
	e.member(t, "v@example.com", model.RoleViewer, h)

	_, err := e.svc.ListUsers(manager, UserQuery{})
	requireKind(t, err, KindPermission)

	viewers, err := e.svc.ListUsers(e.admin, UserQuery{Role: model.RoleViewer})
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	assert.Equal(t, "v@example.com", viewers[0].Email)
	require.Len(t, viewers[0].Houses, 1)

	inHouse, err := e.svc.ListUsers(e.admin, UserQuery{HouseID: ptr(h)})
	require.NoError(t, err)
	assert.Len(t, inHouse, 2)

	_, err = e.svc.ListUsers(e.admin, UserQuery{Role: "nurse"})
	requireKind(t, err, KindValidation)
}

func TestListMedicationsHouseFilterForAdmin(t *testing.T) {
	e := setupService(t)
	h1 := e.house(t, "H1")
	h2 := e.house(t, "H2")
	e.medication(t, h1, "Aspirina", 10, 1, "2031-01-01")
	m2 := e.medication(t, h2, "Brufen", 10, 1, "2031-01-01")

	got, err := e.svc.ListMedications(e.admin, MedicationQuery{HouseID: ptr(h2)})
	require.NoError(t, err)
	assert.Equal(t, []int64{m2.ID}, ids(got))
}
