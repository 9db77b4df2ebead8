package router

import (
	"net/http"

	"marketplace/internal/controller"
)

func NewRouter(c *controller.Controller) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", c.Status)

	mux.HandleFunc("POST /api/organizations", c.NewOrganization)

	mux.HandleFunc("GET /api/opportunities", c.GetOpportunities)
	mux.HandleFunc("POST /api/opportunities", c.NewOpportunity)
	mux.HandleFunc("GET /api/opportunities/{opportunityId}", c.GetOpportunity)
	mux.HandleFunc("PUT /api/opportunities/{opportunityId}", c.OpportunityAction)
	mux.HandleFunc("DELETE /api/opportunities/{opportunityId}", c.DeleteOpportunity)

	mux.HandleFunc("GET /api/proposals", c.GetProposals)
	mux.HandleFunc("POST /api/proposals", c.NewProposal)
	mux.HandleFunc("GET /api/proposals/{proposalId}", c.GetProposal)
	mux.HandleFunc("PUT /api/proposals/{proposalId}", c.ProposalAction)
	mux.HandleFunc("DELETE /api/proposals/{proposalId}", c.DeleteProposal)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	cors := http.NewServeMux()
	cors.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Accept", "*/*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
		} else {
			mux.ServeHTTP(w, r)
		}
	})

	return cors
}
