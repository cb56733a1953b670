package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository"
	"github.com/gorilla/mux"
)

type ProfileHandler struct {
	userRepo    repository.UserRepo
	profileRepo repository.ProfileRepo
	areaRepo    repository.ServiceAreaRepo
}

func NewProfileHandler(ur repository.UserRepo, pr repository.ProfileRepo, ar repository.ServiceAreaRepo) *ProfileHandler {
	return &ProfileHandler{userRepo: ur, profileRepo: pr, areaRepo: ar}
}

type profileResponse struct {
	Profile *models.ContractorProfile `json:"profile"`
	Areas   []models.ServiceArea      `json:"areas"`
}

func (h *ProfileHandler) getContractorProfile(r *http.Request) (*models.User, *models.ContractorProfile, error) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		return nil, nil, err
	}
	if actor.UserType != models.UserTypeContractor {
		return nil, nil, workflow.Authorizationf("only contractors have a service profile")
	}
	p, err := h.profileRepo.GetProfileByUserID(r.Context(), actor.ID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, workflow.NotFoundf("profile not found")
	}
	return actor, p, nil
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	_, p, err := h.getContractorProfile(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	areas, err := h.areaRepo.ListServiceAreas(r.Context(), p.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if areas == nil {
		areas = []models.ServiceArea{}
	}
	writeJSON(w, profileResponse{Profile: p, Areas: areas}, http.StatusOK)
}

type updateProfileRequest struct {
	Trades []string `json:"trades"`
	Bio    string   `json:"bio"`
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	_, p, err := h.getContractorProfile(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	p.Trades = req.Trades
	p.Bio = req.Bio
	if err := h.profileRepo.UpdateProfile(r.Context(), p); err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

type createAreaRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
	City      string  `json:"city"`
	State     string  `json:"state"`
}

func (h *ProfileHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	_, p, err := h.getContractorProfile(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if req.RadiusKm <= 0 {
		writeWorkflowError(w, workflow.Validationf("radius_km must be positive"))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeWorkflowError(w, workflow.Validationf("invalid coordinate"))
		return
	}

	// The data shape supports many areas but the product currently allows a
	// single one per contractor.
	existing, err := h.areaRepo.ListServiceAreas(r.Context(), p.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if len(existing) >= 1 {
		writeWorkflowError(w, workflow.Conflictf("a service area already exists, remove it first"))
		return
	}

	area := models.ServiceArea{
		ProfileID: p.ID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		RadiusKm:  req.RadiusKm,
		City:      req.City,
		State:     req.State,
	}
	id, err := h.areaRepo.CreateServiceArea(r.Context(), &area)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	area.ID = id
	writeJSON(w, area, http.StatusCreated)
}

func (h *ProfileHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	_, p, err := h.getContractorProfile(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	areas, err := h.areaRepo.ListServiceAreas(r.Context(), p.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if areas == nil {
		areas = []models.ServiceArea{}
	}
	writeJSON(w, areas, http.StatusOK)
}

func (h *ProfileHandler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid area id", http.StatusBadRequest)
		return
	}
	_, p, err := h.getContractorProfile(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := h.areaRepo.DeleteServiceArea(r.Context(), id, p.ID); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
