package lifecycle

import "marketplace/internal/models"

// Role and ownership predicates. Every permission decision the service
// makes goes through one of these, checked once at the request boundary;
// transition code never re-derives roles ad hoc.

func IsAdmin(u models.User) bool {
	return u.Role == models.RoleAdmin
}

func IsGovernment(u models.User) bool {
	return u.Role == models.RoleGovernment || u.Role == models.RoleAdmin
}

func IsVendor(u models.User) bool {
	return u.Role == models.RoleVendor
}

func OwnsOpportunity(u models.User, o models.Opportunity) bool {
	return o.CreatedBy == u.Id
}

func OwnsProposal(u models.User, p models.Proposal) bool {
	return p.CreatedBy == u.Id
}

//// Opportunities

func CanCreateOpportunity(u models.User) bool {
	return IsGovernment(u)
}

func CanEditOpportunity(u models.User, o models.Opportunity) bool {
	return IsAdmin(u) || (IsGovernment(u) && OwnsOpportunity(u, o))
}

// CanPublishOpportunity: drafts are published by their owner (or an admin);
// bringing a suspended opportunity back is admin-only, as is suspending.
func CanPublishOpportunity(u models.User, o models.Opportunity) bool {
	if o.Status == models.OpportunitySuspended {
		return IsAdmin(u)
	}
	return CanEditOpportunity(u, o)
}

func CanSuspendOpportunity(u models.User) bool {
	return IsAdmin(u)
}

func CanCancelOpportunity(u models.User, o models.Opportunity) bool {
	return IsAdmin(u) || (IsGovernment(u) && OwnsOpportunity(u, o))
}

func CanAddAddendum(u models.User, o models.Opportunity) bool {
	return CanEditOpportunity(u, o)
}

func CanDeleteOpportunity(u models.User, o models.Opportunity) bool {
	return IsAdmin(u) || OwnsOpportunity(u, o)
}

// CanReadOpportunity: anything published onward is public (actor may be
// nil); drafts are visible only to their owner and admins.
func CanReadOpportunity(u *models.User, o models.Opportunity) bool {
	if o.Status != models.OpportunityDraft {
		return true
	}
	if u == nil {
		return false
	}
	return IsAdmin(*u) || OwnsOpportunity(*u, o)
}

//// Proposals

func CanCreateProposal(u models.User) bool {
	return IsVendor(u)
}

func CanEditProposal(u models.User, p models.Proposal) bool {
	return IsVendor(u) && OwnsProposal(u, p)
}

func CanWithdrawProposal(u models.User, p models.Proposal) bool {
	return IsVendor(u) && OwnsProposal(u, p)
}

func CanScoreProposal(u models.User) bool {
	return IsGovernment(u)
}

func CanAwardProposal(u models.User) bool {
	return IsGovernment(u)
}

func CanDisqualifyProposal(u models.User) bool {
	return IsGovernment(u)
}

func CanDeleteProposal(u models.User, p models.Proposal) bool {
	return IsAdmin(u) || (IsVendor(u) && OwnsProposal(u, p))
}

// CanReadProposal: the owning vendor always; government staff once they
// can see the parent opportunity's proposals (owner of the opportunity or
// an admin).
func CanReadProposal(u models.User, p models.Proposal, o models.Opportunity) bool {
	if OwnsProposal(u, p) {
		return true
	}
	return IsAdmin(u) || (IsGovernment(u) && OwnsOpportunity(u, o))
}
