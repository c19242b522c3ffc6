package domain

// Roles
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)
