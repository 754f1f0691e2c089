package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/farmacase/farmacase/internal/model"
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

func scanHouse(scanner interface{ Scan(...any) error }) (*model.House, error) {
	var h model.House
	err := scanner.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Region, &h.PostalCode,
		&h.Phone, &h.Email, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const houseCols = `id, name, address, city, region, postal_code, phone, email, status, created_at, updated_at`

// HouseInput holds the writable fields of a house. Nil pointers are left
// untouched on update.
type HouseInput struct {
	Name       *string
	Address    *string
	City       *string
	Region     *string
	PostalCode *string
	Phone      *string
	Email      *string
	Status     *string
}

// HouseFilter narrows a house listing. A non-nil IDs restricts the result to
// those houses; an empty non-nil IDs matches nothing.
type HouseFilter struct {
	IDs    []int64
	Region string
	Status string
}

func (s *HouseStore) Create(in HouseInput) (*model.House, error) {
	status := model.HouseStatusActive
	if in.Status != nil && *in.Status != "" {
		status = *in.Status
	}
	result, err := s.db.Exec(
		`INSERT INTO houses (name, address, city, region, postal_code, phone, email, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		deref(in.Name), deref(in.Address), deref(in.City), deref(in.Region),
		deref(in.PostalCode), deref(in.Phone), deref(in.Email), status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseStore) GetByID(id int64) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return h, nil
}

// Exists reports whether a house with the given id is stored.
func (s *HouseStore) Exists(id int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM houses WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check house: %w", err)
	}
	return n > 0, nil
}

func (s *HouseStore) Update(id int64, in HouseInput) (*model.House, error) {
	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("name", in.Name)
	add("address", in.Address)
	add("city", in.City)
	add("region", in.Region)
	add("postal_code", in.PostalCode)
	add("phone", in.Phone)
	add("email", in.Email)
	add("status", in.Status)

	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, id)
		_, err := s.db.Exec(`UPDATE houses SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update house: %w", err)
		}
	}
	return s.GetByID(id)
}

// Delete removes the house. Medications, their history, notifications and
// assignments go with it through foreign key cascades.
func (s *HouseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM houses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete house: %w", err)
	}
	return nil
}

// List returns houses matching f ordered by name.
func (s *HouseStore) List(f HouseFilter) ([]model.House, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []model.House{}, nil
	}

	var where []string
	var args []any
	if f.IDs != nil {
		where = append(where, "id IN ("+placeholders(len(f.IDs))+")")
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}
	if f.Region != "" {
		where = append(where, "region = ?")
		args = append(args, f.Region)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := `SELECT ` + houseCols + ` FROM houses`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name ASC, id ASC`

	return s.query(query, args...)
}

func (s *HouseStore) ListAll() ([]model.House, error) {
	return s.List(HouseFilter{})
}

// ListActive returns active houses in id order, the order the weekly scan
// walks them.
func (s *HouseStore) ListActive() ([]model.House, error) {
	return s.query(`SELECT `+houseCols+` FROM houses WHERE status = ? ORDER BY id ASC`, model.HouseStatusActive)
}

// ListAssigned returns the houses a user is assigned to, ordered by name.
func (s *HouseStore) ListAssigned(userID int64) ([]model.House, error) {
	return s.query(
		`SELECT h.id, h.name, h.address, h.city, h.region, h.postal_code, h.phone, h.email, h.status, h.created_at, h.updated_at
		 FROM houses h
		 JOIN user_houses uh ON uh.house_id = h.id
		 WHERE uh.user_id = ?
		 ORDER BY h.name ASC, h.id ASC`,
		userID,
	)
}

func (s *HouseStore) query(query string, args ...any) ([]model.House, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list houses: %w", err)
	}
	defer rows.Close()

	var houses []model.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
