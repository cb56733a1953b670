package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fixboard/fixboard/internal/geo"
	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository"
	"github.com/gorilla/mux"
)

// Notifier is the outbox surface handlers enqueue events on. It may be nil
// in tests; delivery failures are logged and never fail the request.
type Notifier interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int) (int64, error)
}

type JobsHandler struct {
	userRepo    repository.UserRepo
	jobRepo     repository.JobRepo
	profileRepo repository.ProfileRepo
	areaRepo    repository.ServiceAreaRepo
	reviewRepo  repository.ReviewRepo
	notifier    Notifier
}

func NewJobsHandler(ur repository.UserRepo, jr repository.JobRepo, pr repository.ProfileRepo, ar repository.ServiceAreaRepo, rr repository.ReviewRepo, n Notifier) *JobsHandler {
	return &JobsHandler{userRepo: ur, jobRepo: jr, profileRepo: pr, areaRepo: ar, reviewRepo: rr, notifier: n}
}

func (h *JobsHandler) notify(ctx context.Context, typ string, payload any) {
	if h.notifier == nil {
		return
	}
	if _, err := h.notifier.Enqueue(ctx, typ, payload, 100); err != nil {
		logger.Error("enqueue notification", "type", typ, "err", err)
	}
}

func jobIDFromRequest(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, workflow.Validationf("invalid job id")
	}
	return id, nil
}

func (h *JobsHandler) loadJob(r *http.Request) (*models.Job, error) {
	id, err := jobIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	j, err := h.jobRepo.GetJob(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, workflow.NotFoundf("job %d not found", id)
	}
	return j, nil
}

type createJobRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	PricingType  models.PricingType `json:"pricing_type"`
	Budget       *float64           `json:"budget"`
	Location     models.Location    `json:"location"`
	CategoryTags []string           `json:"category_tags"`
	Images       []string           `json:"images"`
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	j := models.Job{
		LandlordID:   actor.ID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.JobStatusDraft,
		PricingType:  req.PricingType,
		Budget:       req.Budget,
		Location:     req.Location,
		CategoryTags: req.CategoryTags,
		Images:       req.Images,
	}
	if err := workflow.ValidateNewJob(actor, &j); err != nil {
		writeWorkflowError(w, err)
		return
	}

	id, err := h.jobRepo.CreateJob(r.Context(), &j)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j.ID = id
	writeJSON(w, j, http.StatusCreated)
}

// ListJobs returns the landlord's own jobs, or for contractors the open
// jobs filtered through their service areas. The filter is fail-open: no
// areas or no job coordinate means the job is shown.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	q := r.URL.Query()
	limit := 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	var jobs []models.Job
	if actor.UserType == models.UserTypeLandlord {
		jobs, err = h.jobRepo.ListJobsByLandlord(r.Context(), actor.ID, limit, offset)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
	} else {
		open, err := h.jobRepo.ListOpenJobs(r.Context(), limit, offset)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		areas, err := h.contractorAreas(r.Context(), actor.ID)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		for _, j := range open {
			if geo.Covers(areas, j.Location) {
				jobs = append(jobs, j)
			}
		}
	}

	if jobs == nil {
		jobs = []models.Job{}
	}
	writeJSON(w, map[string]any{"limit": limit, "offset": offset, "items": jobs}, http.StatusOK)
}

func (h *JobsHandler) contractorAreas(ctx context.Context, userID int64) ([]models.ServiceArea, error) {
	p, err := h.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil || p == nil {
		return nil, err
	}
	return h.areaRepo.ListServiceAreas(ctx, p.ID)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.loadJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	// open jobs are public to authenticated users; everything else only to
	// the parties involved
	isOwner := j.LandlordID == actor.ID
	isAssigned := j.ContractorID != nil && *j.ContractorID == actor.ID
	if j.Status != models.JobStatusOpen && !isOwner && !isAssigned {
		writeWorkflowError(w, workflow.NotFoundf("job %d not found", j.ID))
		return
	}

	writeJSON(w, j, http.StatusOK)
}

func (h *JobsHandler) PublishJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor *models.User, j *models.Job) error {
		return workflow.Publish(actor, j)
	})
}

func (h *JobsHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor *models.User, j *models.Job) error {
		return workflow.Cancel(actor, j)
	})
}

func (h *JobsHandler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor *models.User, j *models.Job) error {
		return workflow.Complete(actor, j)
	})
}

// transition loads the job, applies a pure state-machine step and persists
// the result.
func (h *JobsHandler) transition(w http.ResponseWriter, r *http.Request, step func(*models.User, *models.Job) error) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.loadJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := step(actor, j); err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := h.jobRepo.UpdateJob(r.Context(), j); err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, j, http.StatusOK)
}

type progressRequest struct {
	Progress int `json:"progress"`
}

func (h *JobsHandler) SetProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.transition(w, r, func(actor *models.User, j *models.Job) error {
		return workflow.SetProgress(actor, j, req.Progress)
	})
}

type assignRequest struct {
	ContractorID int64 `json:"contractor_id"`
}

// AssignJob is direct assignment without a bid. It funnels through the same
// conditional update as bid acceptance so the two paths cannot both win.
func (h *JobsHandler) AssignJob(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.loadJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	contractor, err := h.userRepo.GetUserByID(r.Context(), req.ContractorID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ValidateAssign(actor, j, contractor); err != nil {
		writeWorkflowError(w, err)
		return
	}

	ok, err := h.jobRepo.AssignOpenJob(r.Context(), j.ID, contractor.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if !ok {
		writeWorkflowError(w, workflow.Conflictf("job is no longer open"))
		return
	}

	j, err = h.jobRepo.GetJob(r.Context(), j.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, j, http.StatusOK)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *JobsHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.loadJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ValidateReview(actor, j, req.Rating); err != nil {
		writeWorkflowError(w, err)
		return
	}

	rv := models.Review{JobID: j.ID, AuthorID: actor.ID, Rating: req.Rating, Comment: req.Comment}
	id, err := h.reviewRepo.CreateReview(r.Context(), &rv)
	if err != nil {
		// the unique (job_id, author_id) index makes a double submit a conflict
		writeWorkflowError(w, workflow.Conflictf("review already submitted"))
		return
	}
	rv.ID = id
	writeJSON(w, rv, http.StatusCreated)
}

func (h *JobsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r, h.userRepo); err != nil {
		writeWorkflowError(w, err)
		return
	}
	j, err := h.loadJob(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	reviews, err := h.reviewRepo.ListReviewsByJob(r.Context(), j.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	writeJSON(w, reviews, http.StatusOK)
}
