package api

import (
	"github.com/fixboard/fixboard/internal/chat"
	"github.com/fixboard/fixboard/internal/config"
	"github.com/fixboard/fixboard/internal/db"
	"github.com/fixboard/fixboard/internal/repository/sqlite"
	"github.com/gorilla/mux"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB, notifier Notifier) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(conn, logger)
	hub := chat.NewHub()

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, repo, cfg.JWTSecret, cfg.TokenDuration)
	profileHandler := NewProfileHandler(repo, repo, repo)
	jobsHandler := NewJobsHandler(repo, repo, repo, repo, repo, notifier)
	bidsHandler := NewBidsHandler(repo, repo, repo, notifier)
	quotesHandler := NewQuotesHandler(repo, repo, repo, repo, notifier)
	chatHandler := NewChatHandler(repo, repo, repo, hub, notifier)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Contractor profile and service areas
	apiV1.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	apiV1.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")
	apiV1.HandleFunc("/profile/areas", profileHandler.ListAreas).Methods("GET")
	apiV1.HandleFunc("/profile/areas", profileHandler.CreateArea).Methods("POST")
	apiV1.HandleFunc("/profile/areas/{id}", profileHandler.DeleteArea).Methods("DELETE")

	// Jobs
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/publish", jobsHandler.PublishJob).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/cancel", jobsHandler.CancelJob).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/progress", jobsHandler.SetProgress).Methods("PUT")
	apiV1.HandleFunc("/jobs/{id}/complete", jobsHandler.CompleteJob).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/assign", jobsHandler.AssignJob).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/reviews", jobsHandler.CreateReview).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/reviews", jobsHandler.ListReviews).Methods("GET")

	// Bids
	apiV1.HandleFunc("/jobs/{id}/bids", bidsHandler.CreateBid).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/bids", bidsHandler.ListBidsByJob).Methods("GET")
	apiV1.HandleFunc("/bids", bidsHandler.ListMyBids).Methods("GET")
	apiV1.HandleFunc("/bids/{id}/accept", bidsHandler.AcceptBid).Methods("POST")
	apiV1.HandleFunc("/bids/{id}/reject", bidsHandler.RejectBid).Methods("POST")

	// Quotes and invoices
	apiV1.HandleFunc("/quotes", quotesHandler.CreateQuote).Methods("POST")
	apiV1.HandleFunc("/quotes", quotesHandler.ListQuotes).Methods("GET")
	apiV1.HandleFunc("/quotes/{id}", quotesHandler.GetQuote).Methods("GET")
	apiV1.HandleFunc("/quotes/{id}", quotesHandler.UpdateQuote).Methods("PUT")
	apiV1.HandleFunc("/quotes/{id}/send", quotesHandler.SendQuote).Methods("POST")
	apiV1.HandleFunc("/quotes/{id}/accept", quotesHandler.AcceptQuote).Methods("POST")
	apiV1.HandleFunc("/quotes/{id}/reject", quotesHandler.RejectQuote).Methods("POST")
	apiV1.HandleFunc("/quotes/{id}/invoice", quotesHandler.ConvertInvoice).Methods("POST")
	apiV1.HandleFunc("/quotes/{id}/invoice", quotesHandler.GetInvoice).Methods("GET")

	// Chat
	apiV1.HandleFunc("/jobs/{id}/chat", chatHandler.GetChat).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/chat/messages", chatHandler.PostMessage).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/chat/ws", chatHandler.ChatWS).Methods("GET")

	return r
}
