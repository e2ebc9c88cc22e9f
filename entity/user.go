package entity

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"password,omitempty" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Roles       []Role       `json:"roles,omitempty" db:"-"`
	Departments []Department `json:"departments,omitempty" db:"-"`
}

// UserRef is the slice of a user that task listings embed.
type UserRef struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

type Department struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Actor is the authenticated user for one request, with roles resolved once.
type Actor struct {
	ID    int64
	Name  string
	Roles map[Role]bool
}

func NewActor(id int64, name string, roles []Role) Actor {
	a := Actor{ID: id, Name: name, Roles: make(map[Role]bool, len(roles))}
	for _, r := range roles {
		a.Roles[r] = true
	}
	return a
}

func (a Actor) Has(r Role) bool {
	return a.Roles[r]
}

func (a Actor) IsManager() bool { return a.Has(RoleManager) }

// IsEmployee also holds for users without any role.
func (a Actor) IsEmployee() bool {
	return len(a.Roles) == 0 || a.Has(RoleEmployee)
}
