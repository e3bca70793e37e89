package model

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type User struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	HashedPassword string   `json:"-"` // Not exposed
	FsUniquifier   string   `json:"-"`
	Active         bool     `json:"active"`
	Roles          []string `json:"roles"`
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// PrimaryRole is the role reported at login: admin wins, otherwise the first
// role the user was given.
func (u *User) PrimaryRole() string {
	if u.HasAnyRole(RoleAdmin) {
		return RoleAdmin
	}
	if len(u.Roles) > 0 {
		return u.Roles[0]
	}
	return ""
}
