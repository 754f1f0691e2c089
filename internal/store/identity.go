package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmacase/farmacase/internal/model"
)

// IdentityStore persists the accounts people log in with. It is the local
// stand-in for an external identity provider.
type IdentityStore struct {
	db   *sql.DB
	cost int
}

func NewIdentityStore(db *sql.DB) *IdentityStore {
	return &IdentityStore{db: db, cost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost used for new passwords.
func (s *IdentityStore) SetHashCost(cost int) {
	s.cost = cost
}

func scanIdentity(scanner interface{ Scan(...any) error }) (*model.Identity, error) {
	var i model.Identity
	err := scanner.Scan(&i.ID, &i.Login, &i.Email, &i.FirstName, &i.LastName, &i.DisplayName,
		&i.PasswordHash, &i.IsAdministrator, &i.RoleTag, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const identityCols = `id, login, email, first_name, last_name, display_name, password_hash, is_administrator, role_tag, created_at, updated_at`

type IdentityInput struct {
	Login           string
	Email           string
	FirstName       string
	LastName        string
	DisplayName     string
	Password        string
	IsAdministrator bool
	RoleTag         string
}

// IdentityUpdate holds the mutable identity fields. Nil pointers are left
// untouched.
type IdentityUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	DisplayName *string
	Password    *string
	RoleTag     *string
	// PasswordHash is written as given. Set it instead of Password when the
	// hash is computed before a transaction opens.
	PasswordHash *string
}

// HashPassword hashes password with the store's bcrypt cost.
func (s *IdentityStore) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *IdentityStore) Create(in IdentityInput) (*model.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	result, err := s.db.Exec(
		`INSERT INTO identities (login, email, first_name, last_name, display_name, password_hash, is_administrator, role_tag)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Login, strings.TrimSpace(in.Email), in.FirstName, in.LastName, in.DisplayName,
		string(hash), in.IsAdministrator, in.RoleTag,
	)
	if err != nil {
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *IdentityStore) GetByID(id int64) (*model.Identity, error) {
	return s.getOne(`SELECT `+identityCols+` FROM identities WHERE id = ?`, id)
}

// GetByEmail looks an identity up by email, ignoring case.
func (s *IdentityStore) GetByEmail(email string) (*model.Identity, error) {
	return s.getOne(`SELECT `+identityCols+` FROM identities WHERE email = ?`, strings.TrimSpace(email))
}

func (s *IdentityStore) getOne(query string, arg any) (*model.Identity, error) {
	i, err := scanIdentity(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return i, nil
}

func (s *IdentityStore) LoginExists(login string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM identities WHERE login = ?`, login).Scan(&n); err != nil {
		return false, fmt.Errorf("check login: %w", err)
	}
	return n > 0, nil
}

// UniqueLogin returns base if unused, otherwise base followed by the first
// counter (1, 2, ...) that is free.
func (s *IdentityStore) UniqueLogin(base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		taken, err := s.LoginExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, n)
	}
}

func (s *IdentityStore) Update(id int64, in IdentityUpdate) (*model.Identity, error) {
	if in.Password != nil {
		hash, err := s.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		in.PasswordHash = &hash
	}
	if err := updateIdentity(s.db, id, in); err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// updateIdentity writes the non-nil fields of in. A plain Password is
// ignored here; callers hash it into PasswordHash first.
func updateIdentity(db execer, id int64, in IdentityUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if in.Email != nil {
		add("email", strings.TrimSpace(*in.Email))
	}
	if in.FirstName != nil {
		add("first_name", *in.FirstName)
	}
	if in.LastName != nil {
		add("last_name", *in.LastName)
	}
	if in.DisplayName != nil {
		add("display_name", *in.DisplayName)
	}
	if in.RoleTag != nil {
		add("role_tag", *in.RoleTag)
	}
	if in.PasswordHash != nil {
		add("password_hash", *in.PasswordHash)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	if _, err := db.Exec(`UPDATE identities SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}

// Authenticate returns the identity whose email and password match, or nil.
func (s *IdentityStore) Authenticate(email, password string) (*model.Identity, error) {
	i, err := s.GetByEmail(email)
	if err != nil || i == nil {
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return i, nil
}

// EnsureAdministrator creates a system administrator identity for email when
// none exists. It returns the existing or new identity.
func (s *IdentityStore) EnsureAdministrator(email, password string) (*model.Identity, error) {
	existing, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	local, _, _ := strings.Cut(email, "@")
	login, err := s.UniqueLogin(strings.ToLower(local))
	if err != nil {
		return nil, err
	}
	return s.Create(IdentityInput{
		Login:           login,
		Email:           email,
		DisplayName:     local,
		Password:        password,
		IsAdministrator: true,
		RoleTag:         model.RoleTagAdmin,
	})
}
