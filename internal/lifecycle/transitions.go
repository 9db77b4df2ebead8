// Package lifecycle is the status transition authority for opportunities
// and proposals: the fixed transition tables, the verb tags carried by
// tagged action bodies, and the role/ownership predicates consulted at the
// request boundary. The tables are the single source of truth: an edge not
// declared here cannot be taken by any code path.
package lifecycle

import "marketplace/internal/models"

// Verb tags accepted in `{ "tag": ..., "value": ... }` action bodies.
const (
	TagEdit        = "edit"
	TagPublish     = "publish"
	TagSuspend     = "suspend"
	TagCancel      = "cancel"
	TagAddAddendum = "addAddendum"
	TagSubmit      = "submit"
	TagWithdraw    = "withdraw"
	TagScore       = "score"
	TagAward       = "award"
	TagDisqualify  = "disqualify"
)

var opportunityEdges = map[models.OpportunityStatus][]models.OpportunityStatus{
	models.OpportunityDraft:      {models.OpportunityPublished, models.OpportunityCanceled},
	models.OpportunityPublished:  {models.OpportunityEvaluation, models.OpportunitySuspended, models.OpportunityCanceled},
	models.OpportunityEvaluation: {models.OpportunityAwarded, models.OpportunityCanceled},
	models.OpportunitySuspended:  {models.OpportunityPublished, models.OpportunityCanceled},
}

var proposalEdges = map[models.ProposalStatus][]models.ProposalStatus{
	models.ProposalDraft:       {models.ProposalSubmitted, models.ProposalDisqualified},
	models.ProposalSubmitted:   {models.ProposalUnderReview, models.ProposalWithdrawn, models.ProposalNotAwarded, models.ProposalDisqualified},
	models.ProposalUnderReview: {models.ProposalEvaluated, models.ProposalWithdrawn, models.ProposalNotAwarded, models.ProposalDisqualified},
	models.ProposalEvaluated:   {models.ProposalAwarded, models.ProposalWithdrawn, models.ProposalNotAwarded, models.ProposalDisqualified},
}

// OpportunityEdge reports whether the opportunity state machine declares a
// transition from one status to another.
func OpportunityEdge(from, to models.OpportunityStatus) bool {
	for _, next := range opportunityEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ProposalEdge reports whether the proposal state machine declares a
// transition from one status to another.
func ProposalEdge(from, to models.ProposalStatus) bool {
	for _, next := range proposalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OpportunityEditable reports whether content edits are allowed in the
// given status. Edits never change status; published opportunities stay
// editable until the closing hook moves them to evaluation.
func OpportunityEditable(s models.OpportunityStatus) bool {
	return s == models.OpportunityDraft || s == models.OpportunityPublished
}

// AddendumAllowed restricts addenda to opportunities the public has seen.
func AddendumAllowed(s models.OpportunityStatus) bool {
	switch s {
	case models.OpportunityPublished, models.OpportunityEvaluation, models.OpportunityAwarded:
		return true
	default:
		return false
	}
}

// WithdrawAllowed lists the proposal statuses a vendor may withdraw from.
// Draft is deliberately absent: there is nothing to withdraw, and the
// attempt surfaces as a permission error rather than a silent no-op.
func WithdrawAllowed(s models.ProposalStatus) bool {
	switch s {
	case models.ProposalSubmitted, models.ProposalUnderReview, models.ProposalEvaluated:
		return true
	default:
		return false
	}
}
