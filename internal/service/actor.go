package service

import "github.com/google/uuid"

// Actor is the request-scoped identity handed from the token middleware into
// the services. It is passed explicitly instead of being read off ambient
// request state.
type Actor struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Role        string
	Type        string // "staff" or "konfi"
	DisplayName string
}
