package models

import (
	"encoding/json"
	"time"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

type UserType string

const (
	UserTypeLandlord   UserType = "landlord"
	UserTypeContractor UserType = "contractor"
)

type JobStatus string

const (
	JobStatusDraft      JobStatus = "draft"
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

type PricingType string

const (
	PricingFixed   PricingType = "fixed"
	PricingOpenBid PricingType = "open_bid"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusViewed   QuoteStatus = "viewed"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Password hash schemes. New hashes are always bcrypt; scrypt rows are
// accounts imported from the legacy system and keep the old scheme until the
// next password change.
const (
	HashSchemeBcrypt = "bcrypt"
	HashSchemeScrypt = "scrypt"
)

type User struct {
	ID           int64    `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	Email        string   `json:"email" db:"email"`
	UserType     UserType `json:"user_type" db:"user_type"`
	PasswordHash string   `json:"-" db:"password_hash"`
	HashScheme   string   `json:"-" db:"hash_scheme"`
	Created      int64    `json:"created" db:"created"`
	Updated      int64    `json:"updated" db:"updated"`
}

type ContractorProfile struct {
	ID      int64    `json:"id" db:"id"`
	UserID  int64    `json:"user_id" db:"user_id"`
	Trades  []string `json:"trades"`
	Bio     string   `json:"bio,omitempty" db:"bio"`
	Updated int64    `json:"updated" db:"updated"`
}

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the single explicit location shape used everywhere. Coordinate
// is optional; consumers that need it (the service-area matcher) must treat a
// nil coordinate as "cannot decide" and fail open.
type Location struct {
	Coordinate *LatLng `json:"coordinate,omitempty"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
}

type ServiceArea struct {
	ID        int64   `json:"id" db:"id"`
	ProfileID int64   `json:"profile_id" db:"profile_id"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	RadiusKm  float64 `json:"radius_km" db:"radius_km"`
	City      string  `json:"city,omitempty" db:"city"`
	State     string  `json:"state,omitempty" db:"state"`
}

// Center returns the area's center coordinate.
func (a ServiceArea) Center() LatLng {
	return LatLng{Latitude: a.Latitude, Longitude: a.Longitude}
}

type Job struct {
	ID           int64       `json:"id" db:"id"`
	LandlordID   int64       `json:"landlord_id" db:"landlord_id"`
	Title        string      `json:"title" db:"title"`
	Description  string      `json:"description,omitempty" db:"description"`
	Status       JobStatus   `json:"status" db:"status"`
	PricingType  PricingType `json:"pricing_type" db:"pricing_type"`
	Budget       *float64    `json:"budget,omitempty" db:"budget"`
	Location     Location    `json:"location"`
	CategoryTags []string    `json:"category_tags,omitempty"`
	ContractorID *int64      `json:"contractor_id,omitempty" db:"contractor_id"`
	Progress     int         `json:"progress" db:"progress"`
	Images       []string    `json:"images,omitempty"`
	Created      int64       `json:"created" db:"created"`
	Updated      int64       `json:"updated" db:"updated"`
}

type Bid struct {
	ID            int64     `json:"id" db:"id"`
	JobID         int64     `json:"job_id" db:"job_id"`
	ContractorID  int64     `json:"contractor_id" db:"contractor_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Proposal      string    `json:"proposal" db:"proposal"`
	TimeEstimate  string    `json:"time_estimate,omitempty" db:"time_estimate"`
	ProposedStart *int64    `json:"proposed_start,omitempty" db:"proposed_start"`
	Status        BidStatus `json:"status" db:"status"`
	Created       int64     `json:"created" db:"created"`
	Updated       int64     `json:"updated" db:"updated"`
}

type QuoteLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type Quote struct {
	ID           int64           `json:"id" db:"id"`
	QuoteNumber  string          `json:"quote_number" db:"quote_number"`
	ContractorID int64           `json:"contractor_id" db:"contractor_id"`
	LandlordID   int64           `json:"landlord_id" db:"landlord_id"`
	JobID        *int64          `json:"job_id,omitempty" db:"job_id"`
	Title        string          `json:"title" db:"title"`
	LineItems    []QuoteLineItem `json:"line_items"`
	Subtotal     float64         `json:"subtotal" db:"subtotal"`
	Tax          float64         `json:"tax" db:"tax"`
	Total        float64         `json:"total" db:"total"`
	Status       QuoteStatus     `json:"status" db:"status"`
	ValidUntil   *int64          `json:"valid_until,omitempty" db:"valid_until"`
	Created      int64           `json:"created" db:"created"`
	Updated      int64           `json:"updated" db:"updated"`
}

// Expired reports whether the quote's validity window has elapsed at t.
// Only sent and viewed quotes expire; drafts and terminal quotes never do.
func (q *Quote) Expired(t time.Time) bool {
	if q.ValidUntil == nil {
		return false
	}
	if q.Status != QuoteStatusSent && q.Status != QuoteStatusViewed {
		return false
	}
	return t.UTC().UnixMilli() > *q.ValidUntil
}

type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	QuoteID       int64           `json:"quote_id" db:"quote_id"`
	ContractorID  int64           `json:"contractor_id" db:"contractor_id"`
	LandlordID    int64           `json:"landlord_id" db:"landlord_id"`
	JobID         *int64          `json:"job_id,omitempty" db:"job_id"`
	LineItems     []QuoteLineItem `json:"line_items"`
	Subtotal      float64         `json:"subtotal" db:"subtotal"`
	Tax           float64         `json:"tax" db:"tax"`
	Total         float64         `json:"total" db:"total"`
	Status        string          `json:"status" db:"status"`
	Created       int64           `json:"created" db:"created"`
}

type Review struct {
	ID       int64  `json:"id" db:"id"`
	JobID    int64  `json:"job_id" db:"job_id"`
	AuthorID int64  `json:"author_id" db:"author_id"`
	Rating   int    `json:"rating" db:"rating"`
	Comment  string `json:"comment,omitempty" db:"comment"`
	Created  int64  `json:"created" db:"created"`
}

type ChatRoom struct {
	ID           int64 `json:"id" db:"id"`
	JobID        int64 `json:"job_id" db:"job_id"`
	LandlordID   int64 `json:"landlord_id" db:"landlord_id"`
	ContractorID int64 `json:"contractor_id" db:"contractor_id"`
	Created      int64 `json:"created" db:"created"`
}

type Message struct {
	ID       int64  `json:"id" db:"id"`
	RoomID   int64  `json:"room_id" db:"room_id"`
	SenderID int64  `json:"sender_id" db:"sender_id"`
	Body     string `json:"body" db:"body"`
	Created  int64  `json:"created" db:"created"`
}

type Notification struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}
