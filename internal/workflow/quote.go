package workflow

import (
	"strings"
	"time"

	"github.com/fixboard/fixboard/pkg/models"
)

// Quote lifecycle: draft -> sent -> viewed -> accepted | rejected | expired.
//
// viewed is set on the landlord's first read, independent of acceptance.
// Expiry is lazy: every read evaluates valid_until against the clock, there
// is no background sweep. Conversion to an invoice is a separate idempotent
// operation, never a side effect of acceptance.

// ValidateNewQuote checks a quote a contractor is about to create and fills
// in the computed money fields from the line items.
func ValidateNewQuote(actor *models.User, q *models.Quote) error {
	if actor.UserType != models.UserTypeContractor {
		return Authorizationf("only contractors can create quotes")
	}
	if strings.TrimSpace(q.Title) == "" {
		return Validationf("title is required")
	}
	if len(q.LineItems) == 0 {
		return Validationf("at least one line item is required")
	}
	var subtotal float64
	for i, it := range q.LineItems {
		if strings.TrimSpace(it.Description) == "" {
			return Validationf("line item %d: description is required", i+1)
		}
		if it.Quantity <= 0 {
			return Validationf("line item %d: quantity must be positive", i+1)
		}
		if it.UnitPrice < 0 {
			return Validationf("line item %d: unit price cannot be negative", i+1)
		}
		subtotal += it.Quantity * it.UnitPrice
	}
	if q.Tax < 0 {
		return Validationf("tax cannot be negative")
	}
	q.Subtotal = subtotal
	q.Total = subtotal + q.Tax
	return nil
}

// SendQuote moves a draft to sent.
func SendQuote(actor *models.User, q *models.Quote) error {
	if q.ContractorID != actor.ID {
		return Authorizationf("quote belongs to another contractor")
	}
	if q.Status != models.QuoteStatusDraft {
		return Conflictf("quote is %s, only drafts can be sent", q.Status)
	}
	q.Status = models.QuoteStatusSent
	return nil
}

// EffectiveStatus applies lazy expiry at read time. It returns the status
// callers must report and whether it differs from the stored one (so the row
// can be brought up to date opportunistically).
func EffectiveStatus(q *models.Quote, now time.Time) (models.QuoteStatus, bool) {
	if q.Expired(now) {
		return models.QuoteStatusExpired, q.Status != models.QuoteStatusExpired
	}
	return q.Status, false
}

// MarkViewed records the landlord's first read of a sent quote.
func MarkViewed(actor *models.User, q *models.Quote) bool {
	if q.LandlordID != actor.ID {
		return false
	}
	if q.Status != models.QuoteStatusSent {
		return false
	}
	q.Status = models.QuoteStatusViewed
	return true
}

// ResolveQuote moves a sent or viewed quote to accepted or rejected. Only
// the landlord the quote was issued to can resolve it, and never past the
// validity window.
func ResolveQuote(actor *models.User, q *models.Quote, accept bool, now time.Time) error {
	if q.LandlordID != actor.ID {
		return Authorizationf("quote was issued to another landlord")
	}
	if q.Expired(now) {
		return Conflictf("quote expired on %s", time.UnixMilli(*q.ValidUntil).UTC().Format("2006-01-02"))
	}
	switch q.Status {
	case models.QuoteStatusSent, models.QuoteStatusViewed:
	default:
		return Conflictf("quote is %s and can no longer be resolved", q.Status)
	}
	if accept {
		q.Status = models.QuoteStatusAccepted
	} else {
		q.Status = models.QuoteStatusRejected
	}
	return nil
}

// ValidateConvert checks a quote-to-invoice conversion request. Only accepted
// quotes convert; the repository enforces idempotence with a unique index on
// quote_id.
func ValidateConvert(actor *models.User, q *models.Quote) error {
	if q.ContractorID != actor.ID && q.LandlordID != actor.ID {
		return Authorizationf("quote belongs to another party")
	}
	if q.Status != models.QuoteStatusAccepted {
		return Conflictf("quote is %s, only accepted quotes convert to invoices", q.Status)
	}
	return nil
}

// ValidateUpdateQuote checks an edit. Only the owning contractor can edit,
// and only while the quote is still a draft.
func ValidateUpdateQuote(actor *models.User, q *models.Quote) error {
	if q.ContractorID != actor.ID {
		return Authorizationf("quote belongs to another contractor")
	}
	if q.Status != models.QuoteStatusDraft {
		return Conflictf("quote is %s, only drafts can be edited", q.Status)
	}
	return nil
}
