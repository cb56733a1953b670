package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fixboard/fixboard/pkg/models"
)

func quoteBody(landlordID int64, validUntil *int64) map[string]any {
	body := map[string]any{
		"landlord_id": landlordID,
		"title":       "Bathroom refit",
		"tax":         15.0,
		"line_items": []map[string]any{
			{"description": "Demolition", "quantity": 1, "unit_price": 200},
			{"description": "Tiling", "quantity": 12, "unit_price": 25},
		},
	}
	if validUntil != nil {
		body["valid_until"] = *validUntil
	}
	return body
}

func createQuote(t *testing.T, ts *httptest.Server, token string, body map[string]any) models.Quote {
	t.Helper()
	status, b := doJSON(t, ts, http.MethodPost, "/v1/quotes", token, body)
	if status != http.StatusCreated {
		t.Fatalf("create quote: status %d body %s", status, b)
	}
	var q models.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		t.Fatalf("unmarshal quote: %v", err)
	}
	return q
}

func TestQuoteLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	// first signup gets id 1, second id 2
	landlord := signup(t, ts, "Lana", "lana@example.com", "landlord")
	contractor := signup(t, ts, "Carl", "carl@example.com", "contractor")
	const landlordID = 1

	// landlords cannot issue quotes
	if status, _ := doJSON(t, ts, http.MethodPost, "/v1/quotes", landlord, quoteBody(landlordID, nil)); status != http.StatusForbidden {
		t.Fatalf("landlord quote: status %d, want 403", status)
	}

	// a bad line item never reaches the database
	bad := quoteBody(landlordID, nil)
	bad["line_items"] = []map[string]any{{"description": "Demolition", "quantity": 0, "unit_price": 200}}
	if status, _ := doJSON(t, ts, http.MethodPost, "/v1/quotes", contractor, bad); status != http.StatusBadRequest {
		t.Fatalf("zero quantity: status %d, want 400", status)
	}

	q := createQuote(t, ts, contractor, quoteBody(landlordID, nil))
	if !strings.HasPrefix(q.QuoteNumber, "Q-") {
		t.Fatalf("quote number = %q", q.QuoteNumber)
	}
	if q.Status != models.QuoteStatusDraft {
		t.Fatalf("new quote status = %s, want draft", q.Status)
	}
	if q.Subtotal != 500 || q.Total != 515 {
		t.Fatalf("money fields: subtotal=%v total=%v, want 500/515", q.Subtotal, q.Total)
	}

	// drafts are editable by the owner only
	upd := quoteBody(landlordID, nil)
	upd["title"] = "Bathroom refit, revised"
	if status, _ := doJSON(t, ts, http.MethodPut, fmt.Sprintf("/v1/quotes/%d", q.ID), landlord, upd); status != http.StatusForbidden {
		t.Fatalf("foreign edit: status %d, want 403", status)
	}
	if status, b := doJSON(t, ts, http.MethodPut, fmt.Sprintf("/v1/quotes/%d", q.ID), contractor, upd); status != http.StatusOK {
		t.Fatalf("edit draft: status %d body %s", status, b)
	}

	// resolving a draft is premature
	if status, _ := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/accept", q.ID), landlord, nil); status != http.StatusConflict {
		t.Fatalf("accept draft: status %d, want 409", status)
	}

	if status, b := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/send", q.ID), contractor, nil); status != http.StatusOK {
		t.Fatalf("send: status %d body %s", status, b)
	}
	if status, _ := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/send", q.ID), contractor, nil); status != http.StatusConflict {
		t.Fatalf("double send: status %d, want 409", status)
	}

	// sent quotes are no longer editable
	if status, _ := doJSON(t, ts, http.MethodPut, fmt.Sprintf("/v1/quotes/%d", q.ID), contractor, upd); status != http.StatusConflict {
		t.Fatalf("edit sent: status %d, want 409", status)
	}

	// the landlord's first read flips sent to viewed
	status, b := doJSON(t, ts, http.MethodGet, fmt.Sprintf("/v1/quotes/%d", q.ID), landlord, nil)
	if status != http.StatusOK {
		t.Fatalf("get quote: status %d body %s", status, b)
	}
	var viewed models.Quote
	if err := json.Unmarshal(b, &viewed); err != nil {
		t.Fatalf("unmarshal quote: %v", err)
	}
	if viewed.Status != models.QuoteStatusViewed {
		t.Fatalf("after landlord read: status = %s, want viewed", viewed.Status)
	}

	// only the landlord resolves
	if status, _ := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/accept", q.ID), contractor, nil); status != http.StatusForbidden {
		t.Fatalf("contractor accept: status %d, want 403", status)
	}
	status, b = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/accept", q.ID), landlord, nil)
	if status != http.StatusOK {
		t.Fatalf("accept: status %d body %s", status, b)
	}

	// conversion is idempotent
	status, b = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/invoice", q.ID), contractor, nil)
	if status != http.StatusCreated {
		t.Fatalf("convert: status %d body %s", status, b)
	}
	var first models.Invoice
	if err := json.Unmarshal(b, &first); err != nil {
		t.Fatalf("unmarshal invoice: %v", err)
	}
	if !strings.HasPrefix(first.InvoiceNumber, "INV-") || first.Total != 515 {
		t.Fatalf("invoice = %+v", first)
	}
	status, b = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/invoice", q.ID), contractor, nil)
	if status != http.StatusCreated {
		t.Fatalf("reconvert: status %d body %s", status, b)
	}
	var second models.Invoice
	if err := json.Unmarshal(b, &second); err != nil {
		t.Fatalf("unmarshal invoice: %v", err)
	}
	if second.ID != first.ID || second.InvoiceNumber != first.InvoiceNumber {
		t.Fatalf("conversion not idempotent: %+v vs %+v", first, second)
	}

	status, b = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/v1/quotes/%d/invoice", q.ID), landlord, nil)
	if status != http.StatusOK {
		t.Fatalf("get invoice: status %d body %s", status, b)
	}

	// both parties see the quote in their listings
	for _, token := range []string{landlord, contractor} {
		status, b = doJSON(t, ts, http.MethodGet, "/v1/quotes", token, nil)
		if status != http.StatusOK {
			t.Fatalf("list quotes: status %d body %s", status, b)
		}
		var quotes []models.Quote
		if err := json.Unmarshal(b, &quotes); err != nil || len(quotes) != 1 {
			t.Fatalf("quote listing = %s", b)
		}
	}
}

func TestQuoteLazyExpiry(t *testing.T) {
	ts := newTestServer(t)
	landlord := signup(t, ts, "Lana", "lana5@example.com", "landlord")
	contractor := signup(t, ts, "Carl", "carl5@example.com", "contractor")
	const landlordID = 1

	past := time.Now().Add(-time.Hour).UnixMilli()
	q := createQuote(t, ts, contractor, quoteBody(landlordID, &past))

	// drafts never expire, even past the window
	status, b := doJSON(t, ts, http.MethodGet, fmt.Sprintf("/v1/quotes/%d", q.ID), contractor, nil)
	if status != http.StatusOK {
		t.Fatalf("get draft: status %d body %s", status, b)
	}
	var draft models.Quote
	if err := json.Unmarshal(b, &draft); err != nil {
		t.Fatalf("unmarshal quote: %v", err)
	}
	if draft.Status != models.QuoteStatusDraft {
		t.Fatalf("draft status = %s", draft.Status)
	}

	if status, _ := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/send", q.ID), contractor, nil); status != http.StatusOK {
		t.Fatalf("send failed")
	}

	// once sent, a read past the window reports and persists expired
	status, b = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/v1/quotes/%d", q.ID), landlord, nil)
	if status != http.StatusOK {
		t.Fatalf("get quote: status %d body %s", status, b)
	}
	var expired models.Quote
	if err := json.Unmarshal(b, &expired); err != nil {
		t.Fatalf("unmarshal quote: %v", err)
	}
	if expired.Status != models.QuoteStatusExpired {
		t.Fatalf("status = %s, want expired", expired.Status)
	}

	// expired quotes cannot be accepted or converted
	if status, _ := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/accept", q.ID), landlord, nil); status != http.StatusConflict {
		t.Fatalf("accept expired: status %d, want 409", status)
	}
	if status, _ := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/quotes/%d/invoice", q.ID), contractor, nil); status != http.StatusConflict {
		t.Fatalf("convert expired: status %d, want 409", status)
	}
}
