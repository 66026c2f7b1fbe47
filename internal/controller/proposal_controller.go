package controller

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

type ProposalController struct {
	ProposalService     *service.ProposalService
	QualityCheckService *service.QualityCheckService
	Logger              *slog.Logger
}

func (c *ProposalController) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	var body service.SubmitProposalInput
	if !decodeBody(w, r, &body) {
		return
	}

	p, err := c.ProposalService.SubmitProposal(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (c *ProposalController) ListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := c.ProposalService.ListCampaignProposals(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"data": proposals})
}

func (c *ProposalController) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	p, err := c.ProposalService.AcceptProposal(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (c *ProposalController) DeclineProposal(w http.ResponseWriter, r *http.Request) {
	p, err := c.ProposalService.DeclineProposal(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// TriggerAICheck answers {"result": ...} for a fresh check and {"message": "Already checked"} otherwise.
func (c *ProposalController) TriggerAICheck(w http.ResponseWriter, r *http.Request) {
	out, err := c.QualityCheckService.TriggerQualityCheck(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	if out.AlreadyChecked {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "Already checked"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"result": out.Result})
}
