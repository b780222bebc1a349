package models

// Role enumerates the account roles known to the monitoring platform.
type Role string

const (
	RoleDataOperator Role = "data_operator"
	RoleVet          Role = "vet"
	RoleRegulator    Role = "regulator"
	RoleFarmer       Role = "farmer"
)

// Valid reports whether the role is one the platform recognises.
func (r Role) Valid() bool {
	switch r {
	case RoleDataOperator, RoleVet, RoleRegulator, RoleFarmer:
		return true
	}
	return false
}

// User represents the authenticated account as returned by the login endpoint.
type User struct {
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	Token            string `json:"token"`
	ProfileCompleted bool   `json:"profile_completed"`
}

// Profile carries the completion fields a vet or operator fills in after
// registration.
type Profile struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email_address" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Registration is the account creation payload.
type Registration struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email_address" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Role      Role   `json:"role" binding:"required"`
}
