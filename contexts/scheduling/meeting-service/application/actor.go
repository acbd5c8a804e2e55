package application

// Actor is the tenant-scoped caller identity, derived upstream from verified
// session claims. Commands apply checks in a fixed order: tenant first, then
// role/participant, then state, so cross-tenant probing and wrong-state calls
// both receive information-minimal errors.
type Actor struct {
	OrganizationID string
	UserID         string
	Role           string
}

func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}
