package workflow_test

import (
	"testing"

	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
)

func openJob() *models.Job {
	j := draftJob()
	j.Status = models.JobStatusOpen
	return j
}

func TestValidateNewBid(t *testing.T) {
	tests := []struct {
		name     string
		actor    *models.User
		job      func() *models.Job
		bid      models.Bid
		wantKind workflow.Kind
	}{
		{
			name:  "ok",
			actor: contractor(),
			job:   openJob,
			bid:   models.Bid{Amount: 500, Proposal: "I can fix this tomorrow morning"},
		},
		{
			name:     "landlord cannot bid",
			actor:    landlord(),
			job:      openJob,
			bid:      models.Bid{Amount: 500, Proposal: "I can fix this tomorrow morning"},
			wantKind: workflow.KindAuthorization,
		},
		{
			name:     "job not open",
			actor:    contractor(),
			job:      draftJob,
			bid:      models.Bid{Amount: 500, Proposal: "I can fix this tomorrow morning"},
			wantKind: workflow.KindConflict,
		},
		{
			name:     "non-positive amount",
			actor:    contractor(),
			job:      openJob,
			bid:      models.Bid{Amount: 0, Proposal: "I can fix this tomorrow morning"},
			wantKind: workflow.KindValidation,
		},
		{
			name:     "proposal too short",
			actor:    contractor(),
			job:      openJob,
			bid:      models.Bid{Amount: 500, Proposal: "ok"},
			wantKind: workflow.KindValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := workflow.ValidateNewBid(tc.actor, tc.job(), &tc.bid)
			if workflow.KindOf(err) != tc.wantKind {
				t.Fatalf("kind = %v, want %v (err: %v)", workflow.KindOf(err), tc.wantKind, err)
			}
		})
	}
}

func TestValidateNewBidOverFixedBudget(t *testing.T) {
	budget := 400.0
	j := openJob()
	j.PricingType = models.PricingFixed
	j.Budget = &budget
	err := workflow.ValidateNewBid(contractor(), j, &models.Bid{Amount: 500, Proposal: "I can fix this tomorrow morning"})
	if workflow.KindOf(err) != workflow.KindValidation {
		t.Fatalf("expected validation error over budget, got %v", err)
	}
}

func TestValidateAcceptBid(t *testing.T) {
	b := &models.Bid{ID: 1, JobID: 10, ContractorID: 2, Status: models.BidStatusPending}

	if err := workflow.ValidateAcceptBid(landlord(), openJob(), b); err != nil {
		t.Fatalf("accept: %v", err)
	}

	other := &models.User{ID: 42, UserType: models.UserTypeLandlord}
	if workflow.KindOf(workflow.ValidateAcceptBid(other, openJob(), b)) != workflow.KindAuthorization {
		t.Fatalf("expected authorization error for foreign landlord")
	}

	done := &models.Bid{Status: models.BidStatusRejected}
	if workflow.KindOf(workflow.ValidateAcceptBid(landlord(), openJob(), done)) != workflow.KindConflict {
		t.Fatalf("expected conflict on terminal bid")
	}

	j := openJob()
	j.Status = models.JobStatusInProgress
	if workflow.KindOf(workflow.ValidateAcceptBid(landlord(), j, b)) != workflow.KindConflict {
		t.Fatalf("expected conflict when job no longer open")
	}
}

func TestValidateRejectBid(t *testing.T) {
	b := &models.Bid{ID: 1, JobID: 10, ContractorID: 2, Status: models.BidStatusPending}

	// landlord rejects
	if err := workflow.ValidateRejectBid(landlord(), openJob(), b); err != nil {
		t.Fatalf("landlord reject: %v", err)
	}
	// owning contractor withdraws
	if err := workflow.ValidateRejectBid(contractor(), openJob(), b); err != nil {
		t.Fatalf("contractor withdraw: %v", err)
	}
	// another contractor cannot touch it
	stranger := &models.User{ID: 77, UserType: models.UserTypeContractor}
	if workflow.KindOf(workflow.ValidateRejectBid(stranger, openJob(), b)) != workflow.KindAuthorization {
		t.Fatalf("expected authorization error for foreign contractor")
	}
	// terminal bid stays terminal
	b.Status = models.BidStatusAccepted
	if workflow.KindOf(workflow.ValidateRejectBid(landlord(), openJob(), b)) != workflow.KindConflict {
		t.Fatalf("expected conflict rejecting accepted bid")
	}
}
