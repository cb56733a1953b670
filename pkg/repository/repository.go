package repository

import (
	"context"

	"github.com/fixboard/fixboard/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Lookups return (nil, nil) when the row does not exist.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProfileRepo interface {
	CreateProfile(ctx context.Context, p *models.ContractorProfile) (int64, error)
	GetProfileByUserID(ctx context.Context, userID int64) (*models.ContractorProfile, error)
	UpdateProfile(ctx context.Context, p *models.ContractorProfile) error
}

type ServiceAreaRepo interface {
	CreateServiceArea(ctx context.Context, a *models.ServiceArea) (int64, error)
	ListServiceAreas(ctx context.Context, profileID int64) ([]models.ServiceArea, error)
	DeleteServiceArea(ctx context.Context, id, profileID int64) error
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	UpdateJob(ctx context.Context, j *models.Job) error
	ListJobsByLandlord(ctx context.Context, landlordID int64, limit, offset int) ([]models.Job, error)
	ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error)
	// AssignOpenJob flips an open job to in_progress with the contractor set.
	// The update is conditional on status='open'; it returns false when the
	// job was not open anymore.
	AssignOpenJob(ctx context.Context, jobID, contractorID int64) (bool, error)
}

type BidRepo interface {
	CreateBid(ctx context.Context, b *models.Bid) (int64, error)
	GetBid(ctx context.Context, id int64) (*models.Bid, error)
	ListBidsByJob(ctx context.Context, jobID int64) ([]models.Bid, error)
	ListBidsByContractor(ctx context.Context, contractorID int64) ([]models.Bid, error)
	// AcceptBid atomically accepts the bid, rejects every other pending bid
	// on the job, and moves the job to in_progress. Returns a conflict error
	// when the job is no longer open or the bid is no longer pending.
	AcceptBid(ctx context.Context, jobID, bidID, contractorID int64) error
	// RejectBid moves a pending bid to rejected; returns false when the bid
	// was not pending.
	RejectBid(ctx context.Context, bidID int64) (bool, error)
}

type QuoteRepo interface {
	CreateQuote(ctx context.Context, q *models.Quote) (int64, error)
	GetQuote(ctx context.Context, id int64) (*models.Quote, error)
	UpdateQuote(ctx context.Context, q *models.Quote) error
	UpdateQuoteStatus(ctx context.Context, id int64, status models.QuoteStatus) error
	ListQuotesByContractor(ctx context.Context, contractorID int64) ([]models.Quote, error)
	ListQuotesByLandlord(ctx context.Context, landlordID int64) ([]models.Quote, error)
}

type InvoiceRepo interface {
	// CreateInvoiceFromQuote copies the quote into a new invoice. The
	// operation is idempotent: converting the same quote again returns the
	// invoice created the first time.
	CreateInvoiceFromQuote(ctx context.Context, q *models.Quote, invoiceNumber string) (*models.Invoice, error)
	GetInvoiceByQuoteID(ctx context.Context, quoteID int64) (*models.Invoice, error)
}

type ReviewRepo interface {
	CreateReview(ctx context.Context, rv *models.Review) (int64, error)
	ListReviewsByJob(ctx context.Context, jobID int64) ([]models.Review, error)
}

type ChatRepo interface {
	// GetOrCreateRoom lazily creates the single chat room of a job.
	GetOrCreateRoom(ctx context.Context, j *models.Job) (*models.ChatRoom, error)
	CreateMessage(ctx context.Context, m *models.Message) (int64, error)
	ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]models.Message, error)
}

type SchemaRepo interface {
	GetSchemaJSON(ctx context.Context, version string) (string, error)
}
