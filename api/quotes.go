package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"

	"github.com/fixboard/fixboard/internal/notify"
)

const lineItemsSchemaVersion = "quote_line_items_v1"

// lineItemValidator compiles the seeded line-item schema once and caches it.
type lineItemValidator struct {
	repo  repository.SchemaRepo
	mu    sync.Mutex
	cache *jsonschema.Schema
}

func (v *lineItemValidator) schema(r *http.Request) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cache != nil {
		return v.cache, nil
	}
	raw, err := v.repo.GetSchemaJSON(r.Context(), lineItemsSchemaVersion)
	if err != nil {
		return nil, err
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(raw), rs); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", lineItemsSchemaVersion, err)
	}
	v.cache = rs
	return rs, nil
}

func (v *lineItemValidator) validate(r *http.Request, items []models.QuoteLineItem) error {
	rs, err := v.schema(r)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	errs, err := rs.ValidateBytes(r.Context(), raw)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return workflow.Validationf("line items: %s", errs[0].Error())
	}
	return nil
}

type QuotesHandler struct {
	userRepo    repository.UserRepo
	quoteRepo   repository.QuoteRepo
	invoiceRepo repository.InvoiceRepo
	validator   *lineItemValidator
	notifier    Notifier
}

func NewQuotesHandler(ur repository.UserRepo, qr repository.QuoteRepo, ir repository.InvoiceRepo, sr repository.SchemaRepo, n Notifier) *QuotesHandler {
	return &QuotesHandler{
		userRepo:    ur,
		quoteRepo:   qr,
		invoiceRepo: ir,
		validator:   &lineItemValidator{repo: sr},
		notifier:    n,
	}
}

func (h *QuotesHandler) notify(r *http.Request, typ string, payload any) {
	if h.notifier == nil {
		return
	}
	if _, err := h.notifier.Enqueue(r.Context(), typ, payload, 100); err != nil {
		logger.Error("enqueue notification", "type", typ, "err", err)
	}
}

func newDocNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}

type quoteRequest struct {
	LandlordID int64                  `json:"landlord_id"`
	JobID      *int64                 `json:"job_id"`
	Title      string                 `json:"title"`
	LineItems  []models.QuoteLineItem `json:"line_items"`
	Tax        float64                `json:"tax"`
	ValidUntil *int64                 `json:"valid_until"`
}

func (h *QuotesHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	landlord, err := h.userRepo.GetUserByID(r.Context(), req.LandlordID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if landlord == nil || landlord.UserType != models.UserTypeLandlord {
		writeWorkflowError(w, workflow.Validationf("landlord_id does not name a landlord"))
		return
	}

	q := models.Quote{
		QuoteNumber:  newDocNumber("Q"),
		ContractorID: actor.ID,
		LandlordID:   landlord.ID,
		JobID:        req.JobID,
		Title:        req.Title,
		LineItems:    req.LineItems,
		Tax:          req.Tax,
		Status:       models.QuoteStatusDraft,
		ValidUntil:   req.ValidUntil,
	}
	if err := workflow.ValidateNewQuote(actor, &q); err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := h.validator.validate(r, q.LineItems); err != nil {
		writeWorkflowError(w, err)
		return
	}

	id, err := h.quoteRepo.CreateQuote(r.Context(), &q)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q.ID = id
	writeJSON(w, q, http.StatusCreated)
}

func (h *QuotesHandler) loadQuote(r *http.Request) (*models.Quote, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return nil, workflow.Validationf("invalid quote id")
	}
	q, err := h.quoteRepo.GetQuote(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, workflow.NotFoundf("quote %d not found", id)
	}
	return q, nil
}

// GetQuote returns the quote with lazy expiry applied and records the
// landlord's first view. Both persisted states are best effort; a write
// failure does not fail the read.
func (h *QuotesHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q, err := h.loadQuote(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if q.ContractorID != actor.ID && q.LandlordID != actor.ID {
		writeWorkflowError(w, workflow.NotFoundf("quote %d not found", q.ID))
		return
	}

	if status, changed := workflow.EffectiveStatus(q, time.Now()); changed {
		q.Status = status
		if err := h.quoteRepo.UpdateQuoteStatus(r.Context(), q.ID, status); err != nil {
			logger.Error("persist quote expiry", "quote_id", q.ID, "err", err)
		}
	} else if workflow.MarkViewed(actor, q) {
		if err := h.quoteRepo.UpdateQuoteStatus(r.Context(), q.ID, q.Status); err != nil {
			logger.Error("persist quote view", "quote_id", q.ID, "err", err)
		}
	}

	writeJSON(w, q, http.StatusOK)
}

func (h *QuotesHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	var quotes []models.Quote
	if actor.UserType == models.UserTypeContractor {
		quotes, err = h.quoteRepo.ListQuotesByContractor(r.Context(), actor.ID)
	} else {
		quotes, err = h.quoteRepo.ListQuotesByLandlord(r.Context(), actor.ID)
	}
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	now := time.Now()
	for i := range quotes {
		if status, changed := workflow.EffectiveStatus(&quotes[i], now); changed {
			quotes[i].Status = status
		}
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	writeJSON(w, quotes, http.StatusOK)
}

func (h *QuotesHandler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q, err := h.loadQuote(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ValidateUpdateQuote(actor, q); err != nil {
		writeWorkflowError(w, err)
		return
	}

	q.Title = req.Title
	q.LineItems = req.LineItems
	q.Tax = req.Tax
	q.ValidUntil = req.ValidUntil
	if err := workflow.ValidateNewQuote(actor, q); err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := h.validator.validate(r, q.LineItems); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.quoteRepo.UpdateQuote(r.Context(), q); err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, q, http.StatusOK)
}

func (h *QuotesHandler) SendQuote(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q, err := h.loadQuote(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.SendQuote(actor, q); err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := h.quoteRepo.UpdateQuoteStatus(r.Context(), q.ID, q.Status); err != nil {
		writeWorkflowError(w, err)
		return
	}

	h.notify(r, notify.TypeQuoteSent, map[string]any{"quote_id": q.ID, "landlord_id": q.LandlordID})
	writeJSON(w, q, http.StatusOK)
}

func (h *QuotesHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

func (h *QuotesHandler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *QuotesHandler) resolve(w http.ResponseWriter, r *http.Request, accept bool) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q, err := h.loadQuote(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ResolveQuote(actor, q, accept, time.Now()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := h.quoteRepo.UpdateQuoteStatus(r.Context(), q.ID, q.Status); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if accept {
		h.notify(r, notify.TypeQuoteAccepted, map[string]any{"quote_id": q.ID, "contractor_id": q.ContractorID})
	}
	writeJSON(w, q, http.StatusOK)
}

// ConvertInvoice turns an accepted quote into an invoice. Converting twice
// returns the invoice created the first time.
func (h *QuotesHandler) ConvertInvoice(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q, err := h.loadQuote(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := workflow.ValidateConvert(actor, q); err != nil {
		writeWorkflowError(w, err)
		return
	}

	inv, err := h.invoiceRepo.CreateInvoiceFromQuote(r.Context(), q, newDocNumber("INV"))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, inv, http.StatusCreated)
}

func (h *QuotesHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	q, err := h.loadQuote(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if q.ContractorID != actor.ID && q.LandlordID != actor.ID {
		writeWorkflowError(w, workflow.NotFoundf("quote %d not found", q.ID))
		return
	}
	inv, err := h.invoiceRepo.GetInvoiceByQuoteID(r.Context(), q.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if inv == nil {
		writeWorkflowError(w, workflow.NotFoundf("quote %d has no invoice", q.ID))
		return
	}
	writeJSON(w, inv, http.StatusOK)
}
