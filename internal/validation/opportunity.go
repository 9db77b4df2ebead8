package validation

import (
	"time"

	"marketplace/internal/models"
)

// Field bounds shared by both opportunity flavors.
const (
	TitleMaxLength              = 200
	TeaserMaxLength             = 500
	RemoteDescMaxLength         = 500
	LocationMaxLength           = 100
	SkillMaxLength              = 100
	DescriptionMaxLength        = 10000
	SubmissionInfoMaxLength     = 500
	AcceptanceCriteriaMaxLength = 5000
	EvaluationCriteriaMaxLength = 2000
	AddendumMaxLength           = 5000
	OpportunityNoteMaxLength    = 1000
)

func collect[T any](errs models.ValidationErrors, field string, v Validation[T]) T {
	if !v.Valid() {
		errs.Add(field, v.Errors()...)
	}
	return v.Value()
}

// minLen is 1 in strict mode and 0 for drafts, so incomplete work can be
// saved while still bounding field sizes.
func minLen(strict bool) int {
	if strict {
		return 1
	}
	return 0
}

func ValidateAddendumText(raw string) Validation[string] {
	return String(raw, "addendum", 1, AddendumMaxLength)
}

func ValidateOpportunityNote(raw string) Validation[string] {
	return String(raw, "note", 0, OpportunityNoteMaxLength)
}

func validateSkills(raw []string, strict bool) Validation[[]string] {
	if len(raw) == 0 {
		if strict {
			return Invalid[[]string]("please select at least one skill")
		}
		return Valid([]string(nil))
	}
	validated := Array(raw, func(s string) Validation[string] {
		return String(s, "skill", 1, SkillMaxLength)
	})
	return Map(validated, dedup)
}

func dedup(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ValidateOpportunity checks an opportunity version in one of the two
// validation modes. Draft mode only bounds what is present; strict mode
// (publish, or create-as-published) additionally requires every
// public-facing field and enforces the date chain: assignment date follows
// the proposal deadline, start date follows assignment, completion follows
// start. maxReward comes from configuration per opportunity type.
//
// The proposal deadline is deliberately not checked against the clock:
// whether an opportunity is still open is the closing hook's concern, and
// publishing an already-elapsed opportunity simply closes on the next scan.
func ValidateOpportunity(v models.OpportunityVersion, maxReward float64, strict bool) (models.OpportunityVersion, models.ValidationErrors) {
	errs := models.ValidationErrors{}
	out := v

	out.Title = collect(errs, "title", String(v.Title, "title", minLen(strict), TitleMaxLength))
	out.Teaser = collect(errs, "teaser", String(v.Teaser, "teaser", 0, TeaserMaxLength))
	remoteMin := 0
	if strict && v.RemoteOk {
		remoteMin = 1
	}
	out.RemoteDesc = collect(errs, "remoteDesc", String(v.RemoteDesc, "remote description", remoteMin, RemoteDescMaxLength))
	out.Location = collect(errs, "location", String(v.Location, "location", minLen(strict), LocationMaxLength))
	out.Description = collect(errs, "description", String(v.Description, "description", minLen(strict), DescriptionMaxLength))
	out.SubmissionInfo = collect(errs, "submissionInfo", String(v.SubmissionInfo, "submission info", 0, SubmissionInfoMaxLength))
	out.AcceptanceCriteria = collect(errs, "acceptanceCriteria", String(v.AcceptanceCriteria, "acceptance criteria", minLen(strict), AcceptanceCriteriaMaxLength))
	out.EvaluationCriteria = collect(errs, "evaluationCriteria", String(v.EvaluationCriteria, "evaluation criteria", minLen(strict), EvaluationCriteriaMaxLength))
	out.Skills = collect(errs, "skills", validateSkills(v.Skills, strict))

	if strict || v.Reward != 0 {
		out.Reward = collect(errs, "reward", Number(v.Reward, "reward", 1, maxReward))
	}

	validateDateChain(errs, &out, strict)
	if errs.Empty() {
		return out, nil
	}
	return out, errs
}

func validateDateChain(errs models.ValidationErrors, v *models.OpportunityVersion, strict bool) {
	required := func(field string, d *time.Time) bool {
		if d == nil && strict {
			errs.Add(field, "please provide a valid date")
		}
		return d != nil
	}

	if !required("proposalDeadline", v.ProposalDeadline) {
		return
	}
	if !required("assignmentDate", v.AssignmentDate) {
		return
	}
	collect(errs, "assignmentDate", Date(*v.AssignmentDate, "assignment date", v.ProposalDeadline))
	if !required("startDate", v.StartDate) {
		return
	}
	collect(errs, "startDate", Date(*v.StartDate, "start date", v.AssignmentDate))
	if v.CompletionDate != nil {
		collect(errs, "completionDate", Date(*v.CompletionDate, "completion date", v.StartDate))
	}
}
