package models

import "time"

type UserRole string

const (
	RoleVendor     UserRole = "VENDOR"
	RoleGovernment UserRole = "GOVERNMENT"
	RoleAdmin      UserRole = "ADMIN"
)

func ValidUserRole(r UserRole) bool {
	switch r {
	case RoleVendor, RoleGovernment, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the resolved session identity behind every request. Session
// management itself lives outside this service; requests carry a username
// which the repository resolves to one of these.
type User struct {
	Id              string     `json:"id"`
	Username        string     `json:"username"`
	Role            UserRole   `json:"role"`
	AcceptedTermsAt *time.Time `json:"acceptedTermsAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"-"`
}

// AcceptedTerms reports whether the user has agreed to the platform terms,
// which gates every non-draft proposal transition.
func (u User) AcceptedTerms() bool {
	return u.AcceptedTermsAt != nil
}
