package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/farmacase/farmacase/internal/model"
)

type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

func scanMedication(scanner interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	var createdBy, updatedBy sql.NullInt64
	err := scanner.Scan(&m.ID, &m.HouseID, &m.CommercialName, &m.ActiveIngredient, &m.Description,
		&m.LeafletURL, &m.PackageCount, &m.TotalQuantity, &m.ExpirationDate, &m.MinQuantityAlert,
		&createdBy, &updatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		m.CreatedBy = &createdBy.Int64
	}
	if updatedBy.Valid {
		m.UpdatedBy = &updatedBy.Int64
	}
	return &m, nil
}

const medicationCols = `m.id, m.house_id, m.commercial_name, m.active_ingredient, m.description,
	m.leaflet_url, m.package_count, m.total_quantity, m.expiration_date, m.min_quantity_alert,
	m.created_by, m.updated_by, m.created_at, m.updated_at`

// MedicationInput holds the writable fields of a medication. Nil pointers
// are left untouched on update.
type MedicationInput struct {
	HouseID          *int64
	CommercialName   *string
	ActiveIngredient *string
	Description      *string
	LeafletURL       *string
	PackageCount     *int
	TotalQuantity    *int
	ExpirationDate   *string
	MinQuantityAlert *int
}

// MedicationFilter narrows a medication listing. All set conditions are
// ANDed. A non-nil HouseIDs restricts to those houses; an empty non-nil
// HouseIDs matches nothing.
type MedicationFilter struct {
	HouseID          *int64
	HouseIDs         []int64
	Search           string
	ActiveIngredient string
	// ExpiringFrom and ExpiringTo bound expiration_date inclusively when
	// both are set (YYYY-MM-DD).
	ExpiringFrom string
	ExpiringTo   string
	LowQuantity  bool
}

// Create inserts a medication and its create history entry atomically.
func (s *MedicationStore) Create(in MedicationInput, actorID int64) (*model.Medication, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO medications (house_id, commercial_name, active_ingredient, description, leaflet_url,
			package_count, total_quantity, expiration_date, min_quantity_alert, created_by, updated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		derefInt64(in.HouseID), deref(in.CommercialName), deref(in.ActiveIngredient), deref(in.Description),
		deref(in.LeafletURL), derefInt(in.PackageCount), derefInt(in.TotalQuantity), deref(in.ExpirationDate),
		derefInt(in.MinQuantityAlert), actorID, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	m, err := getMedication(tx, id)
	if err != nil {
		return nil, err
	}
	if err := appendHistory(tx, model.HistoryCreate, actorID, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return m, nil
}

func (s *MedicationStore) GetByID(id int64) (*model.Medication, error) {
	m, err := scanMedication(s.db.QueryRow(`SELECT `+medicationCols+` FROM medications m WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

// HouseOf returns the id of the house owning the medication and whether the
// medication exists.
func (s *MedicationStore) HouseOf(id int64) (int64, bool, error) {
	var houseID int64
	err := s.db.QueryRow(`SELECT house_id FROM medications WHERE id = ?`, id).Scan(&houseID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get medication house: %w", err)
	}
	return houseID, true, nil
}

// Update applies the non-nil fields and records an update history entry
// with the resulting state. It returns nil if the medication does not exist.
func (s *MedicationStore) Update(id int64, in MedicationInput, actorID int64) (*model.Medication, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sets := []string{"updated_by = ?", "updated_at = CURRENT_TIMESTAMP"}
	args := []any{actorID}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if in.HouseID != nil {
		add("house_id", *in.HouseID)
	}
	if in.CommercialName != nil {
		add("commercial_name", *in.CommercialName)
	}
	if in.ActiveIngredient != nil {
		add("active_ingredient", *in.ActiveIngredient)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.LeafletURL != nil {
		add("leaflet_url", *in.LeafletURL)
	}
	if in.PackageCount != nil {
		add("package_count", *in.PackageCount)
	}
	if in.TotalQuantity != nil {
		add("total_quantity", *in.TotalQuantity)
	}
	if in.ExpirationDate != nil {
		add("expiration_date", *in.ExpirationDate)
	}
	if in.MinQuantityAlert != nil {
		add("min_quantity_alert", *in.MinQuantityAlert)
	}
	args = append(args, id)

	result, err := tx.Exec(`UPDATE medications SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}

	m, err := getMedication(tx, id)
	if err != nil {
		return nil, err
	}
	if err := appendHistory(tx, model.HistoryUpdate, actorID, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return m, nil
}

// Delete records a delete history entry holding the pre-delete snapshot and
// removes the medication. It reports false if the medication did not exist.
func (s *MedicationStore) Delete(id int64, actorID int64) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	m, err := getMedication(tx, id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := appendHistory(tx, model.HistoryDelete, actorID, m); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`DELETE FROM medications WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete medication: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// List returns medications matching f ordered by commercial name.
func (s *MedicationStore) List(f MedicationFilter) ([]model.Medication, error) {
	if f.HouseIDs != nil && len(f.HouseIDs) == 0 {
		return []model.Medication{}, nil
	}

	var where []string
	var args []any
	if f.HouseID != nil {
		where = append(where, "m.house_id = ?")
		args = append(args, *f.HouseID)
	}
	if f.HouseIDs != nil {
		where = append(where, "m.house_id IN ("+placeholders(len(f.HouseIDs))+")")
		for _, id := range f.HouseIDs {
			args = append(args, id)
		}
	}
	if f.Search != "" {
		like := likePattern(f.Search)
		where = append(where, `(casefold(m.commercial_name) LIKE ? ESCAPE '\' OR casefold(m.active_ingredient) LIKE ? ESCAPE '\' OR casefold(m.description) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if f.ActiveIngredient != "" {
		where = append(where, `casefold(m.active_ingredient) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.ActiveIngredient))
	}
	if f.ExpiringFrom != "" && f.ExpiringTo != "" {
		where = append(where, "m.expiration_date BETWEEN ? AND ?")
		args = append(args, f.ExpiringFrom, f.ExpiringTo)
	}
	if f.LowQuantity {
		where = append(where, "m.total_quantity <= m.min_quantity_alert")
	}

	query := `SELECT ` + medicationCols + ` FROM medications m`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY m.commercial_name ASC, m.id ASC`

	return s.query(query, args...)
}

// ListExpiringInHouse returns medications of the house expiring between from
// and to inclusive, soonest first.
func (s *MedicationStore) ListExpiringInHouse(houseID int64, from, to string) ([]model.Medication, error) {
	return s.query(
		`SELECT `+medicationCols+` FROM medications m
		 WHERE m.house_id = ? AND m.expiration_date BETWEEN ? AND ?
		 ORDER BY m.expiration_date ASC, m.id ASC`,
		houseID, from, to,
	)
}

// ListLowInHouse returns medications of the house at or below their alert
// threshold, largest deficit first.
func (s *MedicationStore) ListLowInHouse(houseID int64) ([]model.Medication, error) {
	return s.query(
		`SELECT `+medicationCols+` FROM medications m
		 WHERE m.house_id = ? AND m.total_quantity <= m.min_quantity_alert
		 ORDER BY (m.total_quantity - m.min_quantity_alert) ASC, m.id ASC`,
		houseID,
	)
}

// ListExpiringInActiveHouses is the cross-house variant used for the
// administrative digest.
func (s *MedicationStore) ListExpiringInActiveHouses(from, to string) ([]model.MedicationWithHouse, error) {
	return s.queryWithHouse(
		`SELECT `+medicationCols+`, h.name FROM medications m
		 JOIN houses h ON h.id = m.house_id
		 WHERE h.status = 'active' AND m.expiration_date BETWEEN ? AND ?
		 ORDER BY m.expiration_date ASC, m.id ASC`,
		from, to,
	)
}

func (s *MedicationStore) ListLowInActiveHouses() ([]model.MedicationWithHouse, error) {
	return s.queryWithHouse(
		`SELECT ` + medicationCols + `, h.name FROM medications m
		 JOIN houses h ON h.id = m.house_id
		 WHERE h.status = 'active' AND m.total_quantity <= m.min_quantity_alert
		 ORDER BY (m.total_quantity - m.min_quantity_alert) ASC, m.id ASC`,
	)
}

func (s *MedicationStore) query(query string, args ...any) ([]model.Medication, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, *m)
	}
	return meds, rows.Err()
}

func (s *MedicationStore) queryWithHouse(query string, args ...any) ([]model.MedicationWithHouse, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []model.MedicationWithHouse
	for rows.Next() {
		var mh model.MedicationWithHouse
		var createdBy, updatedBy sql.NullInt64
		m := &mh.Medication
		err := rows.Scan(&m.ID, &m.HouseID, &m.CommercialName, &m.ActiveIngredient, &m.Description,
			&m.LeafletURL, &m.PackageCount, &m.TotalQuantity, &m.ExpirationDate, &m.MinQuantityAlert,
			&createdBy, &updatedBy, &m.CreatedAt, &m.UpdatedAt, &mh.HouseName)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		if createdBy.Valid {
			m.CreatedBy = &createdBy.Int64
		}
		if updatedBy.Valid {
			m.UpdatedBy = &updatedBy.Int64
		}
		meds = append(meds, mh)
	}
	return meds, rows.Err()
}

// getMedication reads a medication inside a transaction. It returns
// sql.ErrNoRows unwrapped when the row is missing.
func getMedication(tx *sql.Tx, id int64) (*model.Medication, error) {
	m, err := scanMedication(tx.QueryRow(`SELECT `+medicationCols+` FROM medications m WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

// likePattern builds a substring pattern for comparison against a
// casefold() column, which the database package registers on the driver.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
