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

// CreateOpportunity creates an opportunity directly in DRAFT or PUBLISHED.
// Drafts validate leniently so incomplete work can be saved; creating as
// published applies the full strict tier.
func (s *Service) CreateOpportunity(ctx context.Context, username string, o models.Opportunity) (models.Opportunity, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.CreateOpportunity: %w", err)
	}
	if !lifecycle.CanCreateOpportunity(user) {
		return models.Opportunity{}, fmt.Errorf("service.Service.CreateOpportunity: %w", models.ErrPermission)
	}

	errs := models.ValidationErrors{}
	if !models.ValidOpportunityType(o.Type) {
		errs.Add("type", "opportunity type must be CODE_WITH_US or SPRINT_WITH_US")
	}
	if o.Status != models.OpportunityDraft && o.Status != models.OpportunityPublished {
		errs.Add("status", "an opportunity may only be created as DRAFT or PUBLISHED")
	}
	if !errs.Empty() {
		return models.Opportunity{}, errs
	}

	strict := o.Status == models.OpportunityPublished
	version, verrs := validation.ValidateOpportunity(o.OpportunityVersion, s.maxReward(o.Type), strict)
	if verrs != nil {
		return models.Opportunity{}, verrs
	}

	o.OpportunityVersion = version
	o.CreatedBy = user.Id
	result, err := s.repo.AddOpportunity(ctx, o)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.CreateOpportunity: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventOpportunityCreated, "opportunity", result.Id, result)
	return result, nil
}

// GetOpportunities lists opportunities the actor may see: everything
// published onward is public, drafts only for their owner or an admin.
func (s *Service) GetOpportunities(ctx context.Context, username string, limit, offset int) ([]models.Opportunity, error) {
	user, err := s.optionalUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetOpportunities: %w", err)
	}

	opportunities, err := s.repo.GetOpportunities(ctx, limit, offset, "", nil)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetOpportunities: %w", err)
	}

	visible := make([]models.Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		if lifecycle.CanReadOpportunity(user, o) {
			visible = append(visible, o)
		}
	}
	return visible, nil
}

// GetOpportunity returns one opportunity with its history. An opportunity
// the actor cannot see reads as not found, never as forbidden.
func (s *Service) GetOpportunity(ctx context.Context, username, opportunityId string) (models.Opportunity, error) {
	user, err := s.optionalUser(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.GetOpportunity: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.GetOpportunity: %w", err)
	}
	if !lifecycle.CanReadOpportunity(user, o) {
		return models.Opportunity{}, fmt.Errorf("service.Service.GetOpportunity: %w", models.ErrNotFound)
	}

	o.History, err = s.repo.OpportunityHistory(ctx, o.Id)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.GetOpportunity: %w", err)
	}
	return o, nil
}

// EditOpportunity appends a new version without touching status. Published
// opportunities stay editable until their deadline passes; their content
// must keep passing the strict tier.
func (s *Service) EditOpportunity(ctx context.Context, username, opportunityId string, v models.OpportunityVersion) (models.Opportunity, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.EditOpportunity: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.EditOpportunity: %w", err)
	}
	if !lifecycle.CanEditOpportunity(user, o) {
		return models.Opportunity{}, fmt.Errorf("service.Service.EditOpportunity: %w", models.ErrPermission)
	}
	if !lifecycle.OpportunityEditable(o.Status) {
		return models.Opportunity{}, models.ValidationErrors{"status": {"only draft and published opportunities may be edited"}}
	}
	if o.Status == models.OpportunityPublished && o.Closed(time.Now()) {
		return models.Opportunity{}, models.ValidationErrors{"status": {"the proposal deadline has passed, this opportunity can no longer be edited"}}
	}

	strict := o.Status == models.OpportunityPublished
	version, verrs := validation.ValidateOpportunity(v, s.maxReward(o.Type), strict)
	if verrs != nil {
		return models.Opportunity{}, verrs
	}

	o.OpportunityVersion = version
	o.OpportunityId = o.Id
	result, err := s.repo.UpdateOpportunityContent(ctx, o, user.Id)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.EditOpportunity: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventOpportunityEdited, "opportunity", result.Id, result)
	return result, nil
}

// PublishOpportunity takes DRAFT (owner or admin) or SUSPENDED (admin) to
// PUBLISHED. The current version must pass the strict tier; a failing field
// returns the full error map and leaves status untouched.
func (s *Service) PublishOpportunity(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.PublishOpportunity: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.PublishOpportunity: %w", err)
	}
	if !lifecycle.CanPublishOpportunity(user, o) {
		return models.Opportunity{}, fmt.Errorf("service.Service.PublishOpportunity: %w", models.ErrPermission)
	}
	if !lifecycle.OpportunityEdge(o.Status, models.OpportunityPublished) {
		return models.Opportunity{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s opportunity cannot be published", o.Status)}}
	}

	if _, verrs := validation.ValidateOpportunity(o.OpportunityVersion, s.maxReward(o.Type), true); verrs != nil {
		return models.Opportunity{}, verrs
	}
	if noteErrs := validation.ValidateOpportunityNote(note); !noteErrs.Valid() {
		return models.Opportunity{}, models.ValidationErrors{"note": noteErrs.Errors()}
	}

	return s.setOpportunityStatus(ctx, user, o, models.OpportunityPublished, note, audit.EventOpportunityPublished)
}

// SuspendOpportunity takes PUBLISHED to SUSPENDED. Admin only.
func (s *Service) SuspendOpportunity(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.SuspendOpportunity: %w", err)
	}
	if !lifecycle.CanSuspendOpportunity(user) {
		return models.Opportunity{}, fmt.Errorf("service.Service.SuspendOpportunity: %w", models.ErrPermission)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.SuspendOpportunity: %w", err)
	}
	if !lifecycle.OpportunityEdge(o.Status, models.OpportunitySuspended) {
		return models.Opportunity{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s opportunity cannot be suspended", o.Status)}}
	}
	if noteErrs := validation.ValidateOpportunityNote(note); !noteErrs.Valid() {
		return models.Opportunity{}, models.ValidationErrors{"note": noteErrs.Errors()}
	}

	return s.setOpportunityStatus(ctx, user, o, models.OpportunitySuspended, note, audit.EventOpportunitySuspended)
}

// CancelOpportunity terminates any non-terminal opportunity, unless a
// proposal has already been awarded on it, in which case the award stands
// and cancellation is refused.
func (s *Service) CancelOpportunity(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.CancelOpportunity: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.CancelOpportunity: %w", err)
	}
	if !lifecycle.CanCancelOpportunity(user, o) {
		return models.Opportunity{}, fmt.Errorf("service.Service.CancelOpportunity: %w", models.ErrPermission)
	}
	if !lifecycle.OpportunityEdge(o.Status, models.OpportunityCanceled) {
		return models.Opportunity{}, models.ValidationErrors{"status": {fmt.Sprintf("a %s opportunity cannot be canceled", o.Status)}}
	}

	awarded, err := s.repo.HasAwardedProposal(ctx, o.Id)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.CancelOpportunity: %w", err)
	}
	if awarded {
		return models.Opportunity{}, fmt.Errorf("service.Service.CancelOpportunity: opportunity has an awarded proposal: %w", models.ErrPermission)
	}
	if noteErrs := validation.ValidateOpportunityNote(note); !noteErrs.Valid() {
		return models.Opportunity{}, models.ValidationErrors{"note": noteErrs.Errors()}
	}

	return s.setOpportunityStatus(ctx, user, o, models.OpportunityCanceled, note, audit.EventOpportunityCanceled)
}

// AddAddendum appends an addendum event to a publicly visible opportunity.
// Status is untouched; the addendum lives in the history.
func (s *Service) AddAddendum(ctx context.Context, username, opportunityId, text string) (models.Opportunity, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.AddAddendum: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.AddAddendum: %w", err)
	}
	if !lifecycle.CanAddAddendum(user, o) {
		return models.Opportunity{}, fmt.Errorf("service.Service.AddAddendum: %w", models.ErrPermission)
	}
	if !lifecycle.AddendumAllowed(o.Status) {
		return models.Opportunity{}, models.ValidationErrors{"status": {"addenda may only be added once an opportunity is published"}}
	}

	validated := validation.ValidateAddendumText(text)
	if !validated.Valid() {
		return models.Opportunity{}, models.ValidationErrors{"addendum": validated.Errors()}
	}

	err = s.repo.AddOpportunityEvent(ctx, o.Id, models.OpportunityEventAddendumAdded, validated.Value(), user.Id)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.AddAddendum: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventAddendumAdded, "opportunity", o.Id, o)
	return s.GetOpportunity(ctx, username, opportunityId)
}

// DeleteOpportunity removes a draft outright. Anything past draft has been
// seen and must be canceled instead; the attempt reads as a permission
// failure.
func (s *Service) DeleteOpportunity(ctx context.Context, username, opportunityId string) error {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("service.Service.DeleteOpportunity: %w", err)
	}

	o, err := s.repo.GetOpportunityByUUID(ctx, opportunityId)
	if err != nil {
		return fmt.Errorf("service.Service.DeleteOpportunity: %w", err)
	}
	if !lifecycle.CanDeleteOpportunity(user, o) || o.Status != models.OpportunityDraft {
		return fmt.Errorf("service.Service.DeleteOpportunity: %w", models.ErrPermission)
	}

	err = s.repo.DeleteOpportunity(ctx, o.Id)
	if err != nil {
		return fmt.Errorf("service.Service.DeleteOpportunity: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventOpportunityDeleted, "opportunity", o.Id, o)
	return nil
}

// CloseExpiredOpportunities is the deadline-driven transition: every still
// published opportunity whose proposal deadline has elapsed moves to
// EVALUATION, and its submitted proposals to UNDER_REVIEW. Only the
// scheduled closing hook calls this; no user-facing verb can force it.
// Returns how many opportunities were closed.
func (s *Service) CloseExpiredOpportunities(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpiredPublishedOpportunities(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("service.Service.CloseExpiredOpportunities: %w", err)
	}

	closed := 0
	for _, id := range ids {
		ok, err := s.repo.CloseOpportunity(ctx, id)
		if err != nil {
			return closed, fmt.Errorf("service.Service.CloseExpiredOpportunities: %w", err)
		}
		if ok {
			closed++
			s.audit.Record(ctx, "", audit.EventOpportunityClosed, "opportunity", id, nil)
		}
	}
	return closed, nil
}

// setOpportunityStatus performs a verb's transition after its guards have
// passed, then re-reads the entity for the response.
func (s *Service) setOpportunityStatus(ctx context.Context, user models.User, o models.Opportunity, to models.OpportunityStatus, note, event string) (models.Opportunity, error) {
	err := s.repo.SetOpportunityStatus(ctx, o.Id, o.Status, to, note, &user.Id)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.setOpportunityStatus: %w", err)
	}

	result, err := s.repo.GetOpportunityByUUID(ctx, o.Id)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("service.Service.setOpportunityStatus: %w", err)
	}

	s.audit.Record(ctx, user.Id, event, "opportunity", result.Id, result)
	return result, nil
}
