package controller

import (
	"context"
	"net/http"

	"marketplace/internal/lifecycle"
	"marketplace/internal/models"
)

// GET /api/proposals
func (c *Controller) GetProposals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	proposals, err := c.service.GetProposals(r.Context(), username, query.Get("opportunityId"), limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, proposals)
}

// POST /api/proposals
func (c *Controller) NewProposal(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewProposalReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	proposal, err := c.service.CreateProposal(r.Context(), username, models.Proposal{
		OpportunityId:      req.OpportunityId,
		Status:             req.Status,
		ProposalText:       req.ProposalText,
		AdditionalComments: req.AdditionalComments,
		ProponentType:      req.ProponentType,
		Individual:         req.Individual,
		OrganizationId:     req.OrganizationId,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalCreatedResponse(w, proposal)
}

// GET /api/proposals/{proposalId}
func (c *Controller) GetProposal(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	proposalId := r.PathValue("proposalId")
	if len(proposalId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty proposalId supplied")
		return
	}

	proposal, err := c.service.GetProposal(r.Context(), username, proposalId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, proposal)
}

// PUT /api/proposals/{proposalId}
func (c *Controller) ProposalAction(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	proposalId := r.PathValue("proposalId")
	if len(proposalId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty proposalId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseActionReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Tag {
	case lifecycle.TagEdit:
		content, err := req.Proposal()
		if err != nil {
			c.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		proposal, err := c.service.EditProposal(r.Context(), username, proposalId, content)
		if err != nil {
			c.serviceErrorResponse(w, err)
			return
		}
		c.marshalResponse(w, proposal)
	case lifecycle.TagSubmit:
		proposal, err := c.service.SubmitProposal(r.Context(), username, proposalId)
		if err != nil {
			c.serviceErrorResponse(w, err)
			return
		}
		c.marshalResponse(w, proposal)
	case lifecycle.TagWithdraw:
		c.proposalNoteAction(w, r, req, username, proposalId, c.service.WithdrawProposal)
	case lifecycle.TagScore:
		value, err := req.Score()
		if err != nil {
			c.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		proposal, err := c.service.ScoreProposal(r.Context(), username, proposalId, value.Score, value.Note)
		if err != nil {
			c.serviceErrorResponse(w, err)
			return
		}
		c.marshalResponse(w, proposal)
	case lifecycle.TagAward:
		c.proposalNoteAction(w, r, req, username, proposalId, c.service.AwardProposal)
	case lifecycle.TagDisqualify:
		c.proposalNoteAction(w, r, req, username, proposalId, c.service.DisqualifyProposal)
	default:
		c.errorResponse(w, http.StatusBadRequest, "unknown proposal action: "+req.Tag)
	}
}

// DELETE /api/proposals/{proposalId}
func (c *Controller) DeleteProposal(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	proposalId := r.PathValue("proposalId")
	if len(proposalId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty proposalId supplied")
		return
	}

	err := c.service.DeleteProposal(r.Context(), username, proposalId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (c *Controller) proposalNoteAction(w http.ResponseWriter, r *http.Request, req *ActionReq, username, proposalId string,
	verb func(ctx context.Context, username, proposalId, note string) (models.Proposal, error)) {

	note, err := req.Note()
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	proposal, err := verb(r.Context(), username, proposalId, note)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, proposal)
}
