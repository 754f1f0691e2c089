package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/farmacase/farmacase/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.IdentityID, &u.Role, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
		&u.Email, &u.DisplayName, &u.FirstName, &u.LastName)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userSelect = `SELECT u.id, u.identity_id, u.role, u.phone, u.created_at, u.updated_at,
	i.email, i.display_name, i.first_name, i.last_name
	FROM users u
	JOIN identities i ON i.id = u.identity_id`

type UserInput struct {
	IdentityID int64
	Role       model.Role
	Phone      string
	HouseIDs   []int64
}

// UserUpdate holds the mutable application fields. A non-nil HouseIDs
// replaces the whole assignment set.
type UserUpdate struct {
	Role     *model.Role
	Phone    *string
	HouseIDs []int64
	// Identity changes are written to the user's identity in the same
	// transaction. Passwords must already be hashed into PasswordHash.
	Identity *IdentityUpdate
}

type UserFilter struct {
	Role    model.Role
	HouseID *int64
}

// Create inserts the user and its house assignments in one transaction.
// House ids that do not exist are skipped.
func (s *UserStore) Create(in UserInput) (*model.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO users (identity_id, role, phone) VALUES (?, ?, ?)`,
		in.IdentityID, in.Role, in.Phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := insertAssignments(tx, id, in.HouseIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.getOne(userSelect+` WHERE u.id = ?`, id)
}

// GetByIdentityID returns the application user bound to an identity, or nil.
func (s *UserStore) GetByIdentityID(identityID int64) (*model.User, error) {
	return s.getOne(userSelect+` WHERE u.identity_id = ?`, identityID)
}

func (s *UserStore) getOne(query string, arg any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	houses, err := s.housesFor([]int64{u.ID})
	if err != nil {
		return nil, err
	}
	u.Houses = nonNilHouses(houses[u.ID])
	return u, nil
}

func (s *UserStore) Update(id int64, in UserUpdate) (*model.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if in.Identity != nil {
		var identityID int64
		err := tx.QueryRow(`SELECT identity_id FROM users WHERE id = ?`, id).Scan(&identityID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve identity: %w", err)
		}
		if err := updateIdentity(tx, identityID, *in.Identity); err != nil {
			return nil, err
		}
	}

	var sets []string
	var args []any
	if in.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *in.Role)
	}
	if in.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *in.Phone)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, id)
		if _, err := tx.Exec(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	if in.HouseIDs != nil {
		if _, err := tx.Exec(`DELETE FROM user_houses WHERE user_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear assignments: %w", err)
		}
		if err := insertAssignments(tx, id, in.HouseIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the application user and its assignments. The identity is
// left in place.
func (s *UserStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// List returns users matching f ordered by display name, each with its
// assigned houses.
func (s *UserStore) List(f UserFilter) ([]model.User, error) {
	query := userSelect
	var where []string
	var args []any
	if f.HouseID != nil {
		query += ` JOIN user_houses fh ON fh.user_id = u.id`
		where = append(where, "fh.house_id = ?")
		args = append(args, *f.HouseID)
	}
	if f.Role != "" {
		where = append(where, "u.role = ?")
		args = append(args, f.Role)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY i.display_name ASC, u.id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	houses, err := s.housesFor(ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Houses = nonNilHouses(houses[users[i].ID])
	}
	return users, nil
}

// AssignedHouseIDs returns the ids of the houses a user is assigned to.
func (s *UserStore) AssignedHouseIDs(userID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT house_id FROM user_houses WHERE user_id = ? ORDER BY house_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *UserStore) IsAssigned(userID, houseID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM user_houses WHERE user_id = ? AND house_id = ?`,
		userID, houseID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return n > 0, nil
}

// ListRecipientsForHouse returns every user assigned to the house.
func (s *UserStore) ListRecipientsForHouse(houseID int64) ([]model.Recipient, error) {
	return s.recipients(
		`SELECT u.id, i.email, i.display_name, u.role
		 FROM users u
		 JOIN identities i ON i.id = u.identity_id
		 JOIN user_houses uh ON uh.user_id = u.id
		 WHERE uh.house_id = ?
		 ORDER BY u.id ASC`,
		houseID,
	)
}

// ListAdminRecipients returns every user holding the admin role.
func (s *UserStore) ListAdminRecipients() ([]model.Recipient, error) {
	return s.recipients(
		`SELECT u.id, i.email, i.display_name, u.role
		 FROM users u
		 JOIN identities i ON i.id = u.identity_id
		 WHERE u.role = ?
		 ORDER BY u.id ASC`,
		model.RoleAdmin,
	)
}

func (s *UserStore) recipients(query string, args ...any) ([]model.Recipient, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []model.Recipient
	for rows.Next() {
		var r model.Recipient
		if err := rows.Scan(&r.UserID, &r.Email, &r.DisplayName, &r.Role); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *UserStore) housesFor(userIDs []int64) (map[int64][]model.HouseSummary, error) {
	out := make(map[int64][]model.HouseSummary)
	if len(userIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	rows, err := s.db.Query(
		`SELECT uh.user_id, h.id, h.name
		 FROM user_houses uh
		 JOIN houses h ON h.id = uh.house_id
		 WHERE uh.user_id IN (`+placeholders(len(userIDs))+`)
		 ORDER BY h.name ASC, h.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list user houses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var h model.HouseSummary
		if err := rows.Scan(&userID, &h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scan user house: %w", err)
		}
		out[userID] = append(out[userID], h)
	}
	return out, rows.Err()
}

// insertAssignments links the user to each existing house in houseIDs.
// Unknown and duplicate ids are skipped.
func insertAssignments(tx *sql.Tx, userID int64, houseIDs []int64) error {
	for _, houseID := range houseIDs {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM houses WHERE id = ?`, houseID).Scan(&n); err != nil {
			return fmt.Errorf("check house: %w", err)
		}
		if n == 0 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO user_houses (user_id, house_id) VALUES (?, ?)`,
			userID, houseID,
		); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}

func nonNilHouses(h []model.HouseSummary) []model.HouseSummary {
	if h == nil {
		return []model.HouseSummary{}
	}
	return h
}
