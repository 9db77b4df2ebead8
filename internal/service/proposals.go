package service

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/audit"
	"marketplace/internal/lifecycle"
	"marketplace/internal/models"
	"marketplace/internal/validation"
)

// openForProposals reports whether an opportunity currently accepts new or
// submitted proposals.
func openForProposals(o models.Opportunity, now time.Time) bool {
	return o.Status == models.OpportunityPublished && !o.Closed(now)
}

// CreateProposal creates a vendor's proposal against a published, still
// open opportunity, either as DRAFT or directly SUBMITTED. Submitting at
// creation applies the strict tier and requires accepted platform terms.
// One proposal per vendor per opportunity; a duplicate is a conflict.
func (s *Service) CreateProposal(ctx context.Context, username string, p models.Proposal) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.CreateProposal: %w", err)
	}
	if !lifecycle.CanCreateProposal(user) {
		return models.Proposal{}, fmt.Errorf("service.Service.CreateProposal: %w", models.ErrPermission)
	}

	if p.Status != models.ProposalDraft && p.Status != models.ProposalSubmitted {
		return models.Proposal{}, models.ValidationErrors{"status": {"a proposal may only be created as DRAFT or SUBMITTED"}}
	}
	if p.Status == models.ProposalSubmitted && !user.AcceptedTerms() {
		return models.Proposal{}, fmt.Errorf("service.Service.CreateProposal: terms not accepted: %w", models.ErrPermission)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, p.OpportunityId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.CreateProposal: %w", err)
	}
	if !openForProposals(o, time.Now()) {
		return models.Proposal{}, models.ValidationErrors{"opportunity": {"this opportunity is not accepting proposals"}}
	}

	strict := p.Status == models.ProposalSubmitted
	validated, verrs := validation.ValidateProposal(p, strict)
	if verrs != nil {
		return models.Proposal{}, verrs
	}
	if validated.ProponentType == models.ProponentOrganization {
		if err := s.checkProponentOrganization(ctx, validated.OrganizationId); err != nil {
			return models.Proposal{}, err
		}
	}

	validated.CreatedBy = user.Id
	result, err := s.repo.AddProposal(ctx, validated)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.CreateProposal: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventProposalCreated, "proposal", result.Id, result)
	return result, nil
}

func (s *Service) checkProponentOrganization(ctx context.Context, organizationId string) error {
	_, ok, err := s.repo.OrganizationByUUID(ctx, organizationId)
	if err != nil {
		return fmt.Errorf("service.Service.checkProponentOrganization: %w", err)
	}
	if !ok {
		return models.ValidationErrors{"organizationId": {"the proponent organization does not exist"}}
	}
	return nil
}

// GetProposals lists proposals visible to the actor: vendors see their
// own, government staff see proposals on opportunities they own, admins
// see everything. An opportunityId narrows the listing.
func (s *Service) GetProposals(ctx context.Context, username, opportunityId string, limit, offset int) ([]models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetProposals: %w", err)
	}

	createdBy := ""
	if lifecycle.IsVendor(user) {
		createdBy = user.Id
	}

	proposals, err := s.repo.GetProposals(ctx, limit, offset, opportunityId, createdBy)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetProposals: %w", err)
	}

	seen := make(map[string]bool, len(proposals))
	ids := make([]string, 0, len(proposals))
	for _, p := range proposals {
		if !seen[p.OpportunityId] {
			seen[p.OpportunityId] = true
			ids = append(ids, p.OpportunityId)
		}
	}
	opportunities, err := s.repo.OpportunitiesByUUIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetProposals: %w", err)
	}

	visible := make([]models.Proposal, 0, len(proposals))
	for _, p := range proposals {
		o, ok := opportunities[p.OpportunityId]
		if ok && lifecycle.CanReadProposal(user, p, o) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// GetProposal returns one proposal with its history. Invisible reads as
// not found, never as forbidden.
func (s *Service) GetProposal(ctx context.Context, username, proposalId string) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.GetProposal: %w", err)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.GetProposal: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, p.OpportunityId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.GetProposal: %w", err)
	}
	if !lifecycle.CanReadProposal(user, p, o) {
		return models.Proposal{}, fmt.Errorf("service.Service.GetProposal: %w", models.ErrNotFound)
	}

	p.History, err = s.repo.ProposalHistory(ctx, p.Id)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.GetProposal: %w", err)
	}
	return p, nil
}

// EditProposal replaces a draft's content. The opportunity reference is
// immutable; only content fields change, under the lenient tier.
func (s *Service) EditProposal(ctx context.Context, username, proposalId string, p models.Proposal) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.EditProposal: %w", err)
	}

	current, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.EditProposal: %w", err)
	}
	if !lifecycle.CanEditProposal(user, current) {
		return models.Proposal{}, fmt.Errorf("service.Service.EditProposal: %w", models.ErrPermission)
	}
	if current.Status != models.ProposalDraft {
		return models.Proposal{}, models.ValidationErrors{"status": {"only draft proposals may be edited"}}
	}

	validated, verrs := validation.ValidateProposal(p, false)
	if verrs != nil {
		return models.Proposal{}, verrs
	}
	if validated.ProponentType == models.ProponentOrganization {
		if err := s.checkProponentOrganization(ctx, validated.OrganizationId); err != nil {
			return models.Proposal{}, err
		}
	}

	validated.Id = current.Id
	validated.OpportunityId = current.OpportunityId
	validated.CreatedBy = current.CreatedBy
	validated.Status = current.Status
	result, err := s.repo.UpdateProposalContent(ctx, validated)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.EditProposal: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventProposalEdited, "proposal", result.Id, result)
	return result, nil
}

// SubmitProposal takes DRAFT to SUBMITTED. Strict validation, accepted
// terms, and a still open opportunity are all required.
func (s *Service) SubmitProposal(ctx context.Context, username, proposalId string) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.SubmitProposal: %w", err)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.SubmitProposal: %w", err)
	}
	if !lifecycle.CanEditProposal(user, p) {
		return models.Proposal{}, fmt.Errorf("service.Service.SubmitProposal: %w", models.ErrPermission)
	}
	if !user.AcceptedTerms() {
		return models.Proposal{}, fmt.Errorf("service.Service.SubmitProposal: terms not accepted: %w", models.ErrPermission)
	}
	if !lifecycle.ProposalEdge(p.Status, models.ProposalSubmitted) {
		return models.Proposal{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s proposal cannot be submitted", p.Status)}}
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, p.OpportunityId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.SubmitProposal: %w", err)
	}
	if !openForProposals(o, time.Now()) {
		return models.Proposal{}, models.ValidationErrors{"opportunity": {"this opportunity is not accepting proposals"}}
	}

	if _, verrs := validation.ValidateProposal(p, true); verrs != nil {
		return models.Proposal{}, verrs
	}

	return s.setProposalStatus(ctx, user, p, models.ProposalSubmitted, "", nil, audit.EventProposalSubmitted)
}

// WithdrawProposal takes a live submitted proposal to WITHDRAWN. A draft
// has nothing to withdraw: that attempt is a permission failure, not a
// silent no-op.
func (s *Service) WithdrawProposal(ctx context.Context, username, proposalId, note string) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.WithdrawProposal: %w", err)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.WithdrawProposal: %w", err)
	}
	if !lifecycle.CanWithdrawProposal(user, p) || !lifecycle.WithdrawAllowed(p.Status) {
		return models.Proposal{}, fmt.Errorf("service.Service.WithdrawProposal: %w", models.ErrPermission)
	}
	if noteErrs := validation.ValidateProposalNote(note); !noteErrs.Valid() {
		return models.Proposal{}, models.ValidationErrors{"note": noteErrs.Errors()}
	}

	return s.setProposalStatus(ctx, user, p, models.ProposalWithdrawn, note, nil, audit.EventProposalWithdrawn)
}

// ScoreProposal takes UNDER_REVIEW to EVALUATED, recording the score. Only
// while the parent opportunity is in EVALUATION.
func (s *Service) ScoreProposal(ctx context.Context, username, proposalId string, score float64, note string) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.ScoreProposal: %w", err)
	}
	if !lifecycle.CanScoreProposal(user) {
		return models.Proposal{}, fmt.Errorf("service.Service.ScoreProposal: %w", models.ErrPermission)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.ScoreProposal: %w", err)
	}
	if !lifecycle.ProposalEdge(p.Status, models.ProposalEvaluated) {
		return models.Proposal{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s proposal cannot be scored", p.Status)}}
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, p.OpportunityId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.ScoreProposal: %w", err)
	}
	if o.Status != models.OpportunityEvaluation {
		return models.Proposal{}, models.ValidationErrors{"status": {"proposals may only be scored while the opportunity is in evaluation"}}
	}

	validated := validation.ValidateScore(score)
	if !validated.Valid() {
		return models.Proposal{}, models.ValidationErrors{"score": validated.Errors()}
	}
	if noteErrs := validation.ValidateProposalNote(note); !noteErrs.Valid() {
		return models.Proposal{}, models.ValidationErrors{"note": noteErrs.Errors()}
	}

	scoreValue := validated.Value()
	return s.setProposalStatus(ctx, user, p, models.ProposalEvaluated, note, &scoreValue, audit.EventProposalScored)
}

// DisqualifyProposal terminates any non-terminal proposal with a required
// reason, which lands in the history.
func (s *Service) DisqualifyProposal(ctx context.Context, username, proposalId, reason string) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.DisqualifyProposal: %w", err)
	}
	if !lifecycle.CanDisqualifyProposal(user) {
		return models.Proposal{}, fmt.Errorf("service.Service.DisqualifyProposal: %w", models.ErrPermission)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.DisqualifyProposal: %w", err)
	}
	if !lifecycle.ProposalEdge(p.Status, models.ProposalDisqualified) {
		return models.Proposal{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s proposal cannot be disqualified", p.Status)}}
	}

	validated := validation.ValidateDisqualificationReason(reason)
	if !validated.Valid() {
		return models.Proposal{}, models.ValidationErrors{"disqualificationReason": validated.Errors()}
	}

	return s.setProposalStatus(ctx, user, p, models.ProposalDisqualified, validated.Value(), nil, audit.EventProposalDisqualified)
}

// AwardProposal takes an EVALUATED proposal to AWARDED. The winner, the
// parent opportunity and every losing sibling change together in one
// transaction; a sibling already awarded aborts the whole thing with a
// conflict.
func (s *Service) AwardProposal(ctx context.Context, username, proposalId, note string) (models.Proposal, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.AwardProposal: %w", err)
	}
	if !lifecycle.CanAwardProposal(user) {
		return models.Proposal{}, fmt.Errorf("service.Service.AwardProposal: %w", models.ErrPermission)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.AwardProposal: %w", err)
	}
	if !lifecycle.ProposalEdge(p.Status, models.ProposalAwarded) {
		return models.Proposal{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s proposal cannot be awarded", p.Status)}}
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, p.OpportunityId)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.AwardProposal: %w", err)
	}
	if o.Status != models.OpportunityEvaluation {
		return models.Proposal{}, models.ValidationErrors{"status": {"proposals may only be awarded while the opportunity is in evaluation"}}
	}
	if noteErrs := validation.ValidateProposalNote(note); !noteErrs.Valid() {
		return models.Proposal{}, models.ValidationErrors{"note": noteErrs.Errors()}
	}

	err = s.repo.AwardProposal(ctx, p.Id, note, user.Id)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.AwardProposal: %w", err)
	}

	result, err := s.repo.GetProposalByUUID(ctx, p.Id)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.AwardProposal: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventProposalAwarded, "proposal", result.Id, result)
	return result, nil
}

// DeleteProposal removes a draft outright; anything else reads as a
// permission failure.
func (s *Service) DeleteProposal(ctx context.Context, username, proposalId string) error {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("service.Service.DeleteProposal: %w", err)
	}

	p, err := s.repo.GetProposalByUUID(ctx, proposalId)
	if err != nil {
		return fmt.Errorf("service.Service.DeleteProposal: %w", err)
	}
	if !lifecycle.CanDeleteProposal(user, p) || p.Status != models.ProposalDraft {
		return fmt.Errorf("service.Service.DeleteProposal: %w", models.ErrPermission)
	}

	err = s.repo.DeleteProposal(ctx, p.Id)
	if err != nil {
		return fmt.Errorf("service.Service.DeleteProposal: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventProposalDeleted, "proposal", p.Id, p)
	return nil
}

func (s *Service) setProposalStatus(ctx context.Context, user models.User, p models.Proposal, to models.ProposalStatus, note string, score *float64, event string) (models.Proposal, error) {
	err := s.repo.SetProposalStatus(ctx, p.Id, p.Status, to, note, score, &user.Id)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.setProposalStatus: %w", err)
	}

	result, err := s.repo.GetProposalByUUID(ctx, p.Id)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("service.Service.setProposalStatus: %w", err)
	}

	s.audit.Record(ctx, user.Id, event, "proposal", result.Id, result)
	return result, nil
}
