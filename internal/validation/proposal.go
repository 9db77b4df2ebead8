package validation

import (
	"marketplace/internal/models"
)

const (
	ProposalTextMaxLength           = 10000
	AdditionalCommentsMaxLength     = 10000
	ProposalNoteMaxLength           = 5000
	DisqualificationReasonMaxLength = 5000
	ProponentFieldMaxLength         = 100

	ScoreMin       = 0
	ScoreMax       = 100
	ScorePrecision = 2
)

// ValidateScore bounds an evaluation score to 0..100 with at most two
// decimal places.
func ValidateScore(raw float64) Validation[float64] {
	return NumberWithPrecision(raw, "score", ScoreMin, ScoreMax, ScorePrecision)
}

func ValidateDisqualificationReason(raw string) Validation[string] {
	return String(raw, "disqualification reason", 1, DisqualificationReasonMaxLength)
}

func ValidateProposalNote(raw string) Validation[string] {
	return String(raw, "note", 0, ProposalNoteMaxLength)
}

func validateIndividual(errs models.ValidationErrors, p models.IndividualProponent, strict bool) models.IndividualProponent {
	out := p
	out.LegalName = collect(errs, "proponent.legalName", String(p.LegalName, "legal name", minLen(strict), ProponentFieldMaxLength))
	out.Email = collect(errs, "proponent.email", Optional(strict || p.Email != "", "", func() Validation[string] {
		return Email(p.Email)
	}))
	out.Phone = collect(errs, "proponent.phone", Optional(p.Phone != "", "", func() Validation[string] {
		return Phone(p.Phone)
	}))
	out.Street1 = collect(errs, "proponent.street1", String(p.Street1, "street address", minLen(strict), ProponentFieldMaxLength))
	out.Street2 = collect(errs, "proponent.street2", String(p.Street2, "street address", 0, ProponentFieldMaxLength))
	out.City = collect(errs, "proponent.city", String(p.City, "city", minLen(strict), ProponentFieldMaxLength))
	out.Region = collect(errs, "proponent.region", String(p.Region, "province or state", minLen(strict), ProponentFieldMaxLength))
	out.MailCode = collect(errs, "proponent.mailCode", String(p.MailCode, "postal or zip code", minLen(strict), ProponentFieldMaxLength))
	out.Country = collect(errs, "proponent.country", String(p.Country, "country", minLen(strict), ProponentFieldMaxLength))
	return out
}

// ValidateProposal checks proposal content in draft or strict mode. Strict
// mode is the submit gate: the proposal text and a complete proponent are
// required before a proposal may leave draft.
func ValidateProposal(p models.Proposal, strict bool) (models.Proposal, models.ValidationErrors) {
	errs := models.ValidationErrors{}
	out := p

	out.ProposalText = collect(errs, "proposalText", String(p.ProposalText, "proposal text", minLen(strict), ProposalTextMaxLength))
	out.AdditionalComments = collect(errs, "additionalComments", String(p.AdditionalComments, "additional comments", 0, AdditionalCommentsMaxLength))

	switch p.ProponentType {
	case models.ProponentIndividual:
		individual := p.Individual
		if individual == nil {
			individual = &models.IndividualProponent{}
		}
		validated := validateIndividual(errs, *individual, strict)
		out.Individual = &validated
		out.OrganizationId = ""
	case models.ProponentOrganization:
		out.OrganizationId = collect(errs, "organizationId", UUID(p.OrganizationId))
		out.Individual = nil
	default:
		errs.Add("proponentType", "proponent must be an individual or an organization")
	}

	if errs.Empty() {
		return out, nil
	}
	return out, errs
}
