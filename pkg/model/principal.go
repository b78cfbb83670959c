package model

// Principal roles issued by the external identity service.
const (
	RoleCustomer   = "customer"
	RoleRestaurant = "restaurant"
)

// Principal is the authenticated caller as asserted by the identity
// service. The core only ever compares it against resource owners; it
// never issues or refreshes credentials.
type Principal struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
