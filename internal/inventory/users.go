package inventory

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

const generatedPasswordLength = 12

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"

type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	// Password is used for a newly created identity; a random one is
	// generated when empty.
	Password string
	Role     model.Role
	Phone    string
	HouseIDs []int64
}

// UserChanges holds a partial user update. A non-nil HouseIDs replaces the
// whole assignment set.
type UserChanges struct {
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
	Role      *model.Role
	Phone     *string
	HouseIDs  []int64
}

// CreatedUser is returned once on creation. GeneratedPassword is set only
// when the service chose the password.
type CreatedUser struct {
	*model.User
	GeneratedPassword string `json:"generated_password,omitempty"`
}

func (s *Service) GetUser(a auth.Actor, id int64) (*model.User, error) {
	if err := s.requireAdmin(a); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, storage("get user", err)
	}
	if u == nil {
		return nil, notFound(CodeUserNotFound, "user not found")
	}
	return u, nil
}

// CreateUser binds an application user to the identity owning the email,
// creating that identity first when there is none.
func (s *Service) CreateUser(a auth.Actor, in NewUser) (*CreatedUser, error) {
	if err := s.requireAdmin(a); err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	switch {
	case in.Email == "":
		return nil, missing("email")
	case in.FirstName == "":
		return nil, missing("first_name")
	case in.LastName == "":
		return nil, missing("last_name")
	case in.Role == "":
		return nil, missing("role")
	}
	if !validEmail(in.Email) {
		return nil, invalid(CodeInvalidField, "email is not valid")
	}
	if !in.Role.Valid() {
		return nil, invalid(CodeInvalidField, "role must be admin, manager or viewer")
	}

	identity, err := s.identities.GetByEmail(in.Email)
	if err != nil {
		return nil, storage("find identity", err)
	}

	var generated string
	if identity == nil {
		password := in.Password
		if password == "" {
			generated, err = generatePassword(generatedPasswordLength)
			if err != nil {
				return nil, storage("generate password", err)
			}
			password = generated
		}
		login, err := s.identities.UniqueLogin(loginHandle(in.FirstName, in.LastName, in.Email))
		if err != nil {
			return nil, storage("derive login", err)
		}
		identity, err = s.identities.Create(store.IdentityInput{
			Login:       login,
			Email:       in.Email,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			DisplayName: displayName(in.FirstName, in.LastName),
			Password:    password,
			RoleTag:     model.RoleTagFor(in.Role),
		})
		if err != nil {
			return nil, storage("create identity", err)
		}
	} else {
		existing, err := s.users.GetByIdentityID(identity.ID)
		if err != nil {
			return nil, storage("find user", err)
		}
		if existing != nil {
			return nil, invalid(CodeUserExists, "user already registered")
		}
		tag := model.RoleTagFor(in.Role)
		if _, err := s.identities.Update(identity.ID, store.IdentityUpdate{RoleTag: &tag}); err != nil {
			return nil, storage("tag identity", err)
		}
	}

	u, err := s.users.Create(store.UserInput{
		IdentityID: identity.ID,
		Role:       in.Role,
		Phone:      strings.TrimSpace(in.Phone),
		HouseIDs:   in.HouseIDs,
	})
	if err != nil {
		return nil, storage("create user", err)
	}
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor", a.IdentityID)
	return &CreatedUser{User: u, GeneratedPassword: generated}, nil
}

func (s *Service) UpdateUser(a auth.Actor, id int64, in UserChanges) (*model.User, error) {
	if err := s.requireAdmin(a); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, storage("get user", err)
	}
	if u == nil {
		return nil, notFound(CodeUserNotFound, "user not found")
	}

	var idu store.IdentityUpdate
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !validEmail(email) {
			return nil, invalid(CodeInvalidField, "email is not valid")
		}
		other, err := s.identities.GetByEmail(email)
		if err != nil {
			return nil, storage("find identity", err)
		}
		if other != nil && other.ID != u.IdentityID {
			return nil, invalid(CodeEmailTaken, "email already in use")
		}
		idu.Email = &email
	}
	first, last := u.FirstName, u.LastName
	if in.FirstName != nil {
		first = strings.TrimSpace(*in.FirstName)
		idu.FirstName = &first
	}
	if in.LastName != nil {
		last = strings.TrimSpace(*in.LastName)
		idu.LastName = &last
	}
	if in.FirstName != nil || in.LastName != nil {
		name := displayName(first, last)
		idu.DisplayName = &name
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.identities.HashPassword(*in.Password)
		if err != nil {
			return nil, storage("hash password", err)
		}
		idu.PasswordHash = &hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, invalid(CodeInvalidField, "role must be admin, manager or viewer")
		}
		if *in.Role != u.Role {
			tag := model.RoleTagFor(*in.Role)
			idu.RoleTag = &tag
		}
	}

	var phone *string
	if in.Phone != nil {
		p := strings.TrimSpace(*in.Phone)
		phone = &p
	}
	updated, err := s.users.Update(id, store.UserUpdate{Role: in.Role, Phone: phone, HouseIDs: in.HouseIDs, Identity: &idu})
	if err != nil {
		return nil, storage("update user", err)
	}
	if updated == nil {
		return nil, notFound(CodeUserNotFound, "user not found")
	}
	return updated, nil
}

// DeleteUser removes the application user and its assignments; the identity
// stays.
func (s *Service) DeleteUser(a auth.Actor, id int64) error {
	if err := s.requireAdmin(a); err != nil {
		return err
	}
	u, err := s.users.GetByID(id)
	if err != nil {
		return storage("get user", err)
	}
	if u == nil {
		return notFound(CodeUserNotFound, "user not found")
	}
	if err := s.users.Delete(id); err != nil {
		return storage("delete user", err)
	}
	s.logger.Info("user deleted", "user_id", id, "actor", a.IdentityID)
	return nil
}

// UserForActor returns the application user bound to the actor, or nil.
func (s *Service) UserForActor(a auth.Actor) (*model.User, error) {
	u, err := s.users.GetByIdentityID(a.IdentityID)
	if err != nil {
		return nil, storage("get user", err)
	}
	return u, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// loginHandle derives "first.last" in lower case, keeping only characters
// allowed in a login. It falls back to the email local part.
func loginHandle(first, last, email string) string {
	clean := func(s string) string {
		var b strings.Builder
		for _, r := range strings.ToLower(s) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	f, l := clean(first), clean(last)
	switch {
	case f != "" && l != "":
		return f + "." + l
	case f != "" || l != "":
		return f + l
	}
	local, _, _ := strings.Cut(email, "@")
	if c := clean(local); c != "" {
		return c
	}
	return "user"
}

func generatePassword(n int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random index: %w", err)
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
