package controller

import (
	"encoding/json"
	"fmt"

	"marketplace/internal/lifecycle"
	"marketplace/internal/models"
)

// New organization request

type NewOrganizationReq struct {
	LegalName string `json:"legalName"`
}

func ParseNewOrganizationReq(data []byte) (*NewOrganizationReq, error) {
	req := &NewOrganizationReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, fmt.Errorf("could not parse json: %w", err)
	}

	return req, nil
}

// New opportunity request

type NewOpportunityReq struct {
	Type   models.OpportunityType   `json:"type"`
	Status models.OpportunityStatus `json:"status"`
	models.OpportunityVersion
}

func ParseNewOpportunityReq(data []byte) (*NewOpportunityReq, error) {
	req := &NewOpportunityReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, fmt.Errorf("could not parse json: %w", err)
	}

	if len(req.Status) == 0 {
		req.Status = models.OpportunityDraft
	}

	return req, nil
}

// New proposal request

type NewProposalReq struct {
	OpportunityId      string                      `json:"opportunityId"`
	Status             models.ProposalStatus       `json:"status"`
	ProposalText       string                      `json:"proposalText"`
	AdditionalComments string                      `json:"additionalComments"`
	ProponentType      models.ProponentType        `json:"proponentType"`
	Individual         *models.IndividualProponent `json:"individual"`
	OrganizationId     string                      `json:"organizationId"`
}

func ParseNewProposalReq(data []byte) (*NewProposalReq, error) {
	req := &NewProposalReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, fmt.Errorf("could not parse json: %w", err)
	}

	if len(req.Status) == 0 {
		req.Status = models.ProposalDraft
	}

	return req, nil
}

// Tagged action request. Every mutation past creation arrives as one of
// these; the tag selects the verb and the value's shape depends on it.

type ActionReq struct {
	Tag   string          `json:"tag"`
	Value json.RawMessage `json:"value"`
}

func ParseActionReq(data []byte) (*ActionReq, error) {
	req := &ActionReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, fmt.Errorf("could not parse json: %w", err)
	}
	if len(req.Tag) == 0 {
		return nil, fmt.Errorf("missing action tag")
	}

	return req, nil
}

// Note returns the action value as a plain string, the shape shared by the
// publish, suspend, cancel, withdraw, award and addendum verbs. An absent
// value reads as an empty note.
func (req *ActionReq) Note() (string, error) {
	if len(req.Value) == 0 {
		return "", nil
	}

	var note string
	err := json.Unmarshal(req.Value, &note)
	if err != nil {
		return "", fmt.Errorf("the '%s' action takes a string value: %w", req.Tag, err)
	}
	return note, nil
}

// OpportunityVersion decodes the edit action's value.
func (req *ActionReq) OpportunityVersion() (models.OpportunityVersion, error) {
	var v models.OpportunityVersion
	err := json.Unmarshal(req.Value, &v)
	if err != nil {
		return v, fmt.Errorf("the '%s' action takes an opportunity content value: %w", lifecycle.TagEdit, err)
	}
	return v, nil
}

// Proposal decodes the edit action's value for proposals.
func (req *ActionReq) Proposal() (models.Proposal, error) {
	var body NewProposalReq
	err := json.Unmarshal(req.Value, &body)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("the '%s' action takes a proposal content value: %w", lifecycle.TagEdit, err)
	}
	return models.Proposal{
		ProposalText:       body.ProposalText,
		AdditionalComments: body.AdditionalComments,
		ProponentType:      body.ProponentType,
		Individual:         body.Individual,
		OrganizationId:     body.OrganizationId,
	}, nil
}

// ScoreValue is the score action's value.
type ScoreValue struct {
	Score float64 `json:"score"`
	Note  string  `json:"note"`
}

func (req *ActionReq) Score() (ScoreValue, error) {
	var v ScoreValue
	err := json.Unmarshal(req.Value, &v)
	if err != nil {
		return v, fmt.Errorf("the '%s' action takes a value with 'score' and optional 'note' fields: %w", lifecycle.TagScore, err)
	}
	return v, nil
}
