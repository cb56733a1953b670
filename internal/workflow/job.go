package workflow

import (
	"strings"

	"github.com/fixboard/fixboard/pkg/models"
)

// Job state machine:
//
//	draft -> open -> in_progress -> completed
//	draft/open -> cancelled
//
// Progress is a 0..100 integer settable only while in_progress. Completion
// requires progress 100; reviews are a separate persisted step and never gate
// the terminal transition.

// ValidateNewJob checks a job a landlord is about to create.
func ValidateNewJob(actor *models.User, j *models.Job) error {
	if actor.UserType != models.UserTypeLandlord {
		return Authorizationf("only landlords can post jobs")
	}
	if strings.TrimSpace(j.Title) == "" {
		return Validationf("title is required")
	}
	switch j.PricingType {
	case models.PricingFixed:
		if j.Budget == nil || *j.Budget <= 0 {
			return Validationf("fixed pricing requires a positive budget")
		}
	case models.PricingOpenBid:
		// budget stays nil, contractors propose amounts
	default:
		return Validationf("pricing_type must be fixed or open_bid")
	}
	return nil
}

// Publish moves a draft to open. Requires title and a location.
func Publish(actor *models.User, j *models.Job) error {
	if j.LandlordID != actor.ID {
		return Authorizationf("job belongs to another landlord")
	}
	if j.Status != models.JobStatusDraft {
		return Conflictf("job is %s, only drafts can be published", j.Status)
	}
	if strings.TrimSpace(j.Title) == "" {
		return Validationf("title is required to publish")
	}
	if j.Location.Coordinate == nil && strings.TrimSpace(j.Location.City) == "" {
		return Validationf("location is required to publish")
	}
	j.Status = models.JobStatusOpen
	return nil
}

// Cancel flags a non-terminal job as cancelled. Landlord-initiated; no
// cleanup beyond the status flag.
func Cancel(actor *models.User, j *models.Job) error {
	if j.LandlordID != actor.ID {
		return Authorizationf("job belongs to another landlord")
	}
	switch j.Status {
	case models.JobStatusDraft, models.JobStatusOpen:
		j.Status = models.JobStatusCancelled
		return nil
	default:
		return Conflictf("job is %s and can no longer be cancelled", j.Status)
	}
}

// ValidateAssign checks a direct assignment of an open job to a contractor.
// The actual status flip happens in the repository's conditional update so
// that assignment and bid acceptance race safely.
func ValidateAssign(actor *models.User, j *models.Job, contractor *models.User) error {
	if j.LandlordID != actor.ID {
		return Authorizationf("job belongs to another landlord")
	}
	if j.Status != models.JobStatusOpen {
		return Conflictf("job is %s, only open jobs can be assigned", j.Status)
	}
	if contractor == nil || contractor.UserType != models.UserTypeContractor {
		return Validationf("assignee must be a contractor")
	}
	return nil
}

// SetProgress updates progress on an in-progress job. Only the assigned
// contractor may report progress. Setting the same value twice is a no-op,
// so the operation is idempotent.
func SetProgress(actor *models.User, j *models.Job, progress int) error {
	if j.ContractorID == nil || *j.ContractorID != actor.ID {
		return Authorizationf("only the assigned contractor can update progress")
	}
	if j.Status != models.JobStatusInProgress {
		return Conflictf("progress can only change while the job is in progress")
	}
	if progress < 0 || progress > 100 {
		return Validationf("progress must be between 0 and 100")
	}
	j.Progress = progress
	return nil
}

// Complete moves an in-progress job to completed once progress reached 100.
// Either the assigned contractor or the landlord may confirm.
func Complete(actor *models.User, j *models.Job) error {
	isLandlord := j.LandlordID == actor.ID
	isContractor := j.ContractorID != nil && *j.ContractorID == actor.ID
	if !isLandlord && !isContractor {
		return Authorizationf("only the landlord or the assigned contractor can complete the job")
	}
	if j.Status != models.JobStatusInProgress {
		return Conflictf("job is %s, only in-progress jobs can be completed", j.Status)
	}
	if j.Progress != 100 {
		return Conflictf("progress is %d, job must reach 100 before completion", j.Progress)
	}
	j.Status = models.JobStatusCompleted
	return nil
}

// ValidateReview checks a review submission. Reviews attach to in-progress or
// completed jobs by either participant.
func ValidateReview(actor *models.User, j *models.Job, rating int) error {
	isLandlord := j.LandlordID == actor.ID
	isContractor := j.ContractorID != nil && *j.ContractorID == actor.ID
	if !isLandlord && !isContractor {
		return Authorizationf("only job participants can leave a review")
	}
	if j.Status != models.JobStatusInProgress && j.Status != models.JobStatusCompleted {
		return Conflictf("reviews are only accepted once work has started")
	}
	if rating < 1 || rating > 5 {
		return Validationf("rating must be between 1 and 5")
	}
	return nil
}
