package model

import "time"

// Role names the permission tier of a user.  It is stored in the
// users.role ENUM column and carried in the JWT "role" claim.
type Role string

const (
	RoleUser            Role = "USER"
	RoleCorporativeUser Role = "CORPORATIVE_USER"
	RoleWorker          Role = "WORKER"
	RoleAdmin           Role = "ADMIN"
)

// Roles lists every role accepted by the API, in declaration order.
func Roles() []Role {
	return []Role{RoleUser, RoleCorporativeUser, RoleWorker, RoleAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCorporativeUser, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user joined with its display profile.
// Each field corresponds to a column in `users` or `user_infos`.  The
// repository always loads both because every caller of GetUser needs
// either the role or the name and email for notifications.
//
// Fields:
//
//	ID        – primary key identifier of the user.
//	Email     – unique email address, the notification target.
//	Role      – permission tier.
//	IsActive  – whether the account is active.
//	Name      – given name from user_infos.
//	Lastname  – family name from user_infos.
//	Address   – postal address printed on invoices.
//	CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	Role      Role      // users.role
	IsActive  bool      // users.is_active
	Name      string    // user_infos.name
	Lastname  string    // user_infos.lastname
	Address   string    // user_infos.address (empty when NULL)
	CreatedAt time.Time // users.created_at
}

// FullName joins the name and lastname with a single space.
func (u User) FullName() string {
	switch {
	case u.Name == "":
		return u.Lastname
	case u.Lastname == "":
		return u.Name
	}
	return u.Name + " " + u.Lastname
}
