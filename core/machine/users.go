package machine

import (
	"encoding"
	"fmt"
	"sort"
	"strings"
)

// Permission is a user's privilege level, root > sudo > user.
type Permission int

const (
	PermUser Permission = iota
	PermSudo
	PermRoot
)

var permissionNames = map[Permission]string{
	PermUser: "user",
	PermSudo: "sudo",
	PermRoot: "root",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// ParsePermission converts a permission name to its level.
func ParsePermission(name string) (Permission, error) {
	for p, n := range permissionNames {
		if n == name {
			return p, nil
		}
	}
	return PermUser, fmt.Errorf("unknown permission %q, expected one of root, sudo, user", name)
}

func (p Permission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

var (
	_ encoding.TextMarshaler   = Permission(0)
	_ encoding.TextUnmarshaler = (*Permission)(nil)
)

// User is an account on the machine.
type User struct {
	Password   string     `json:"password"`
	Permission Permission `json:"permissions"`
}

// RootUser is the account every machine has, it can't log in.
const RootUser = "root"

// forbiddenNameChars can't appear in user, file or directory names.
const forbiddenNameChars = "/ >"

// ValidName reports whether name can be used for a user, file or directory.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, forbiddenNameChars)
}

// Users returns the sorted user names.
func (m *Machine) Users() []string {
	var out []string
	for name := range m.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LookupUser returns the named account.
func (m *Machine) LookupUser(name string) (*User, bool) {
	u, ok := m.users[name]
	return u, ok
}

// SetUser creates or replaces an account.
func (m *Machine) SetUser(name string, u *User) {
	m.users[name] = u
}

// DeleteUser removes an account, it returns false if it didn't exist.
func (m *Machine) DeleteUser(name string) bool {
	if _, ok := m.users[name]; !ok {
		return false
	}
	delete(m.users, name)
	return true
}

// Login checks the credentials and switches the acting user. Root can't log
// in directly.
func (m *Machine) Login(name, password string) error {
	u, ok := m.users[name]
	if !ok || u.Password != password {
		return ErrBadCredentials
	}
	if name == RootUser {
		return ErrRootLogin
	}
	m.user = name
	return nil
}

// CurrentUser returns the acting user's name.
func (m *Machine) CurrentUser() string {
	return m.user
}

// SetCurrentUser switches the acting user without checking credentials.
func (m *Machine) SetCurrentUser(name string) {
	m.user = name
}

// CurrentPermission returns the acting user's permission level.
func (m *Machine) CurrentPermission() Permission {
	if m.user == RootUser {
		return PermRoot
	}
	if u, ok := m.users[m.user]; ok {
		return u.Permission
	}
	return PermUser
}

// Require checks the acting user has at least the given permission and
// reports an error if not.
func (m *Machine) Require(p Permission) Signal {
	if m.CurrentPermission() >= p {
		return OK
	}
	m.Errorf("You don't have permission to perform this command")
	return SigPermission
}
