package workflow

import (
	"strings"

	"github.com/fixboard/fixboard/pkg/models"
)

// Bid state machine: pending -> accepted | rejected, both terminal.
//
// Acceptance has the side effect of moving the parent job to in_progress and
// rejecting every competing pending bid. That whole step runs as a single
// transaction in the repository (see sqlite.AcceptBid); the checks here only
// pre-validate what the actor is allowed to attempt.

const minProposalLen = 10

// ValidateNewBid checks a bid a contractor is about to place on a job.
func ValidateNewBid(actor *models.User, j *models.Job, b *models.Bid) error {
	if actor.UserType != models.UserTypeContractor {
		return Authorizationf("only contractors can bid")
	}
	if j.Status != models.JobStatusOpen {
		return Conflictf("job is %s, bids are only accepted on open jobs", j.Status)
	}
	if b.Amount <= 0 {
		return Validationf("bid amount must be positive")
	}
	if len(strings.TrimSpace(b.Proposal)) < minProposalLen {
		return Validationf("proposal must be at least %d characters", minProposalLen)
	}
	if j.PricingType == models.PricingFixed && j.Budget != nil && b.Amount > *j.Budget {
		return Validationf("bid exceeds the fixed budget of %.2f", *j.Budget)
	}
	return nil
}

// ValidateAcceptBid checks that the actor may accept the bid right now.
func ValidateAcceptBid(actor *models.User, j *models.Job, b *models.Bid) error {
	if j.LandlordID != actor.ID {
		return Authorizationf("only the job's landlord can accept bids")
	}
	if b.Status != models.BidStatusPending {
		return Conflictf("bid is already %s", b.Status)
	}
	if j.Status != models.JobStatusOpen {
		return Conflictf("job is %s, bids can only be accepted while it is open", j.Status)
	}
	return nil
}

// ValidateRejectBid checks a rejection. The job's landlord may reject any
// pending bid; a contractor may withdraw their own.
func ValidateRejectBid(actor *models.User, j *models.Job, b *models.Bid) error {
	if j.LandlordID != actor.ID && b.ContractorID != actor.ID {
		return Authorizationf("bid belongs to another contractor")
	}
	if b.Status != models.BidStatusPending {
		return Conflictf("bid is already %s", b.Status)
	}
	return nil
}
