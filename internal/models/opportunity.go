package models

import "time"

type OpportunityType string

const (
	TypeCodeWithUs   OpportunityType = "CODE_WITH_US"
	TypeSprintWithUs OpportunityType = "SPRINT_WITH_US"
)

func ValidOpportunityType(t OpportunityType) bool {
	switch t {
	case TypeCodeWithUs, TypeSprintWithUs:
		return true
	default:
		return false
	}
}

type OpportunityStatus string

const (
	OpportunityDraft      OpportunityStatus = "DRAFT"
	OpportunityPublished  OpportunityStatus = "PUBLISHED"
	OpportunityEvaluation OpportunityStatus = "EVALUATION"
	OpportunityAwarded    OpportunityStatus = "AWARDED"
	OpportunitySuspended  OpportunityStatus = "SUSPENDED"
	OpportunityCanceled   OpportunityStatus = "CANCELED"
)

func ValidOpportunityStatus(s OpportunityStatus) bool {
	switch s {
	case OpportunityDraft, OpportunityPublished, OpportunityEvaluation,
		OpportunityAwarded, OpportunitySuspended, OpportunityCanceled:
		return true
	default:
		return false
	}
}

// History event tags for opportunities. Stored in the same table as status
// changes, but they do not move the state machine.
const (
	OpportunityEventEdited        = "EDITED"
	OpportunityEventAddendumAdded = "ADDENDUM_ADDED"
)

// OpportunityVersion is one immutable snapshot of an opportunity's content.
// Every edit appends a new version; the opportunity's Version field points
// at the latest one.
type OpportunityVersion struct {
	OpportunityId      string     `json:"-"`
	Version            int        `json:"version"`
	Title              string     `json:"title"`
	Teaser             string     `json:"teaser"`
	RemoteOk           bool       `json:"remoteOk"`
	RemoteDesc         string     `json:"remoteDesc"`
	Location           string     `json:"location"`
	Reward             float64    `json:"reward"`
	Skills             []string   `json:"skills"`
	Description        string     `json:"description"`
	ProposalDeadline   *time.Time `json:"proposalDeadline"`
	AssignmentDate     *time.Time `json:"assignmentDate"`
	StartDate          *time.Time `json:"startDate"`
	CompletionDate     *time.Time `json:"completionDate,omitempty"`
	SubmissionInfo     string     `json:"submissionInfo"`
	AcceptanceCriteria string     `json:"acceptanceCriteria"`
	EvaluationCriteria string     `json:"evaluationCriteria"`
	CreatedBy          string     `json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type Opportunity struct {
	Id        string            `json:"id"`
	Type      OpportunityType   `json:"type"`
	Status    OpportunityStatus `json:"status"`
	CreatedBy string            `json:"createdBy"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"-"`

	OpportunityVersion

	History []StatusRecord `json:"history,omitempty"`
}

// Closed reports whether the proposal window has elapsed. Only the closing
// hook may act on this to change status.
func (o Opportunity) Closed(now time.Time) bool {
	return o.ProposalDeadline != nil && now.After(*o.ProposalDeadline)
}

// Terminal statuses admit no further transitions.
func (s OpportunityStatus) Terminal() bool {
	return s == OpportunityAwarded || s == OpportunityCanceled
}
