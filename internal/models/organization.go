package models

import "time"

type MembershipType string

const (
	MemberOwner  MembershipType = "OWNER"
	MemberMember MembershipType = "MEMBER"
)

type Organization struct {
	Id        string    `json:"id"`
	LegalName string    `json:"legalName"`
	CreatedBy string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// Affiliation links a user to an organization. Every organization gets an
// OWNER affiliation for its creator in the same transaction that creates it.
type Affiliation struct {
	OrganizationId string         `json:"organizationId"`
	UserId         string         `json:"userId"`
	Membership     MembershipType `json:"membership"`
	CreatedAt      time.Time      `json:"createdAt"`
}
