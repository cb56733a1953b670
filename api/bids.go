package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fixboard/fixboard/internal/notify"
	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository"
	"github.com/gorilla/mux"
)

type BidsHandler struct {
	userRepo repository.UserRepo
	jobRepo  repository.JobRepo
	bidRepo  repository.BidRepo
	notifier Notifier
}

func NewBidsHandler(ur repository.UserRepo, jr repository.JobRepo, br repository.BidRepo, n Notifier) *BidsHandler {
	return &BidsHandler{userRepo: ur, jobRepo: jr, bidRepo: br, notifier: n}
}

func (h *BidsHandler) notify(r *http.Request, typ string, payload any) {
	if h.notifier == nil {
		return
	}
	if _, err := h.notifier.Enqueue(r.Context(), typ, payload, 100); err != nil {
		logger.Error("enqueue notification", "type", typ, "err", err)
	}
}

type createBidRequest struct {
	Amount        float64 `json:"amount"`
	Proposal      string  `json:"proposal"`
	TimeEstimate  string  `json:"time_estimate"`
	ProposedStart *int64  `json:"proposed_start"`
}

func (h *BidsHandler) CreateBid(w http.ResponseWriter, r *http.Request) {
	var req createBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.jobRepo.GetJob(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if j == nil {
		writeWorkflowError(w, workflow.NotFoundf("job %d not found", jobID))
		return
	}

	b := models.Bid{
		JobID:         j.ID,
		ContractorID:  actor.ID,
		Amount:        req.Amount,
		Proposal:      req.Proposal,
		TimeEstimate:  req.TimeEstimate,
		ProposedStart: req.ProposedStart,
		Status:        models.BidStatusPending,
	}
	if err := workflow.ValidateNewBid(actor, j, &b); err != nil {
		writeWorkflowError(w, err)
		return
	}

	id, err := h.bidRepo.CreateBid(r.Context(), &b)
	if err != nil {
		// unique (job_id, contractor_id): one bid per contractor per job
		writeWorkflowError(w, workflow.Conflictf("you already bid on this job"))
		return
	}
	b.ID = id

	h.notify(r, notify.TypeBidPlaced, map[string]any{"job_id": j.ID, "bid_id": b.ID, "landlord_id": j.LandlordID})
	writeJSON(w, b, http.StatusCreated)
}

// ListBidsByJob shows the landlord every bid; a contractor only their own.
func (h *BidsHandler) ListBidsByJob(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.jobRepo.GetJob(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if j == nil {
		writeWorkflowError(w, workflow.NotFoundf("job %d not found", jobID))
		return
	}

	bids, err := h.bidRepo.ListBidsByJob(r.Context(), j.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if j.LandlordID != actor.ID {
		filtered := bids[:0]
		for _, b := range bids {
			if b.ContractorID == actor.ID {
				filtered = append(filtered, b)
			}
		}
		bids = filtered
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	writeJSON(w, bids, http.StatusOK)
}

func (h *BidsHandler) ListMyBids(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	bids, err := h.bidRepo.ListBidsByContractor(r.Context(), actor.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	writeJSON(w, bids, http.StatusOK)
}

func (h *BidsHandler) loadBidAndJob(r *http.Request) (*models.Bid, *models.Job, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return nil, nil, workflow.Validationf("invalid bid id")
	}
	b, err := h.bidRepo.GetBid(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, workflow.NotFoundf("bid %d not found", id)
	}
	j, err := h.jobRepo.GetJob(r.Context(), b.JobID)
	if err != nil {
		return nil, nil, err
	}
	if j == nil {
		return nil, nil, workflow.NotFoundf("job %d not found", b.JobID)
	}
	return b, j, nil
}

// AcceptBid validates the request, then delegates the whole state change to
// one repository transaction: job open -> in_progress, winning bid accepted,
// every competing pending bid rejected. Two racing accepts resolve to one
// winner and one conflict.
func (h *BidsHandler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	b, j, err := h.loadBidAndJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ValidateAcceptBid(actor, j, b); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.bidRepo.AcceptBid(r.Context(), j.ID, b.ID, b.ContractorID); err != nil {
		writeWorkflowError(w, err)
		return
	}

	h.notify(r, notify.TypeBidAccepted, map[string]any{"job_id": j.ID, "bid_id": b.ID, "contractor_id": b.ContractorID})

	b, err = h.bidRepo.GetBid(r.Context(), b.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, b, http.StatusOK)
}

func (h *BidsHandler) RejectBid(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	b, j, err := h.loadBidAndJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ValidateRejectBid(actor, j, b); err != nil {
		writeWorkflowError(w, err)
		return
	}

	ok, err := h.bidRepo.RejectBid(r.Context(), b.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if !ok {
		writeWorkflowError(w, workflow.Conflictf("bid is no longer pending"))
		return
	}

	h.notify(r, notify.TypeBidRejected, map[string]any{"job_id": j.ID, "bid_id": b.ID, "contractor_id": b.ContractorID})

	b, err = h.bidRepo.GetBid(r.Context(), b.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, b, http.StatusOK)
}
