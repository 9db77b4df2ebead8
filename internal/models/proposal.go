package models

import "time"

type ProposalStatus string

const (
	ProposalDraft        ProposalStatus = "DRAFT"
	ProposalSubmitted    ProposalStatus = "SUBMITTED"
	ProposalUnderReview  ProposalStatus = "UNDER_REVIEW"
	ProposalEvaluated    ProposalStatus = "EVALUATED"
	ProposalAwarded      ProposalStatus = "AWARDED"
	ProposalNotAwarded   ProposalStatus = "NOT_AWARDED"
	ProposalDisqualified ProposalStatus = "DISQUALIFIED"
	ProposalWithdrawn    ProposalStatus = "WITHDRAWN"
)

func ValidProposalStatus(s ProposalStatus) bool {
	switch s {
	case ProposalDraft, ProposalSubmitted, ProposalUnderReview, ProposalEvaluated,
		ProposalAwarded, ProposalNotAwarded, ProposalDisqualified, ProposalWithdrawn:
		return true
	default:
		return false
	}
}

func (s ProposalStatus) Terminal() bool {
	switch s {
	case ProposalAwarded, ProposalNotAwarded, ProposalDisqualified, ProposalWithdrawn:
		return true
	default:
		return false
	}
}

const ProposalEventEdited = "EDITED"

type ProponentType string

const (
	ProponentIndividual   ProponentType = "INDIVIDUAL"
	ProponentOrganization ProponentType = "ORGANIZATION"
)

func ValidProponentType(t ProponentType) bool {
	return t == ProponentIndividual || t == ProponentOrganization
}

// IndividualProponent carries the contact details a vendor supplies when
// bidding in their own name rather than through an organization.
type IndividualProponent struct {
	LegalName string `json:"legalName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Street1   string `json:"street1"`
	Street2   string `json:"street2,omitempty"`
	City      string `json:"city"`
	Region    string `json:"region"`
	MailCode  string `json:"mailCode"`
	Country   string `json:"country"`
}

type Proposal struct {
	Id                 string               `json:"id"`
	OpportunityId      string               `json:"opportunityId"`
	Status             ProposalStatus       `json:"status"`
	CreatedBy          string               `json:"createdBy"`
	Score              *float64             `json:"score,omitempty"`
	ProposalText       string               `json:"proposalText"`
	AdditionalComments string               `json:"additionalComments,omitempty"`
	ProponentType      ProponentType        `json:"proponentType"`
	Individual         *IndividualProponent `json:"individual,omitempty"`
	OrganizationId     string               `json:"organizationId,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"-"`

	History []StatusRecord `json:"history,omitempty"`
}
