package sqlite_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	dbfs "github.com/fixboard/fixboard/db"
	dbpkg "github.com/fixboard/fixboard/internal/db"
	"github.com/fixboard/fixboard/internal/repository/sqlite"
	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
)

func setupRepo(t *testing.T) *sqlite.SQLiteRepo {
	t.Helper()
	ctx := context.Background()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	d, err := dbpkg.New(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return sqlite.New(d, nil)
}

func seedUsers(t *testing.T, repo *sqlite.SQLiteRepo) (landlordID, contractorID int64) {
	t.Helper()
	ctx := context.Background()
	landlordID, err := repo.CreateUser(ctx, &models.User{Name: "Lana", Email: "lana@example.com", UserType: models.UserTypeLandlord, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create landlord: %v", err)
	}
	contractorID, err = repo.CreateUser(ctx, &models.User{Name: "Carl", Email: "carl@example.com", UserType: models.UserTypeContractor, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create contractor: %v", err)
	}
	return landlordID, contractorID
}

func seedOpenJob(t *testing.T, repo *sqlite.SQLiteRepo, landlordID int64) int64 {
	t.Helper()
	id, err := repo.CreateJob(context.Background(), &models.Job{
		LandlordID:  landlordID,
		Title:       "Fix leaking tap",
		Status:      models.JobStatusOpen,
		PricingType: models.PricingOpenBid,
		Location: models.Location{
			Coordinate: &models.LatLng{Latitude: 44.6488, Longitude: -63.5752},
			City:       "Halifax", State: "NS",
		},
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

func TestJobRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	landlordID, _ := seedUsers(t, repo)

	jobID := seedOpenJob(t, repo, landlordID)
	j, err := repo.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j == nil || j.Title != "Fix leaking tap" || j.Status != models.JobStatusOpen {
		t.Fatalf("unexpected job: %+v", j)
	}
	if j.Location.Coordinate == nil || j.Location.Coordinate.Latitude != 44.6488 {
		t.Fatalf("coordinate lost in round trip: %+v", j.Location)
	}

	// a job without a coordinate comes back with a nil coordinate, not zeros
	id2, err := repo.CreateJob(ctx, &models.Job{LandlordID: landlordID, Title: "Paint fence", PricingType: models.PricingOpenBid, Location: models.Location{City: "Halifax"}})
	if err != nil {
		t.Fatalf("create job 2: %v", err)
	}
	j2, err := repo.GetJob(ctx, id2)
	if err != nil {
		t.Fatalf("get job 2: %v", err)
	}
	if j2.Location.Coordinate != nil {
		t.Fatalf("expected nil coordinate, got %+v", j2.Location.Coordinate)
	}

	if j3, err := repo.GetJob(ctx, 9999); err != nil || j3 != nil {
		t.Fatalf("missing job should be (nil, nil), got (%v, %v)", j3, err)
	}
}

func TestAcceptBidRejectsCompetitors(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	landlordID, contractorID := seedUsers(t, repo)
	otherID, err := repo.CreateUser(ctx, &models.User{Name: "Omar", Email: "omar@example.com", UserType: models.UserTypeContractor, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create contractor 2: %v", err)
	}

	jobID := seedOpenJob(t, repo, landlordID)
	bid500, err := repo.CreateBid(ctx, &models.Bid{JobID: jobID, ContractorID: contractorID, Amount: 500, Proposal: "cheap and cheerful"})
	if err != nil {
		t.Fatalf("create bid 500: %v", err)
	}
	bid600, err := repo.CreateBid(ctx, &models.Bid{JobID: jobID, ContractorID: otherID, Amount: 600, Proposal: "quality work guaranteed"})
	if err != nil {
		t.Fatalf("create bid 600: %v", err)
	}

	if err := repo.AcceptBid(ctx, jobID, bid600, otherID); err != nil {
		t.Fatalf("accept bid: %v", err)
	}

	j, err := repo.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != models.JobStatusInProgress {
		t.Fatalf("job status = %s, want in_progress", j.Status)
	}
	if j.ContractorID == nil || *j.ContractorID != otherID {
		t.Fatalf("job contractor = %v, want %d", j.ContractorID, otherID)
	}

	winner, _ := repo.GetBid(ctx, bid600)
	if winner.Status != models.BidStatusAccepted {
		t.Fatalf("winning bid status = %s, want accepted", winner.Status)
	}
	loser, _ := repo.GetBid(ctx, bid500)
	if loser.Status != models.BidStatusRejected {
		t.Fatalf("losing bid status = %s, want rejected", loser.Status)
	}
}

func TestAcceptBidRaceLosesWithConflict(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	landlordID, contractorID := seedUsers(t, repo)

	jobID := seedOpenJob(t, repo, landlordID)
	bidID, err := repo.CreateBid(ctx, &models.Bid{JobID: jobID, ContractorID: contractorID, Amount: 500, Proposal: "cheap and cheerful"})
	if err != nil {
		t.Fatalf("create bid: %v", err)
	}

	if err := repo.AcceptBid(ctx, jobID, bidID, contractorID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	err = repo.AcceptBid(ctx, jobID, bidID, contractorID)
	if workflow.KindOf(err) != workflow.KindConflict {
		t.Fatalf("second accept should conflict, got %v", err)
	}
}

func TestInvoiceConversionIdempotent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	landlordID, contractorID := seedUsers(t, repo)

	q := &models.Quote{
		QuoteNumber:  "Q-AB12CD34",
		ContractorID: contractorID,
		LandlordID:   landlordID,
		Title:        "Bathroom refit",
		LineItems:    []models.QuoteLineItem{{Description: "Tiles", Quantity: 10, UnitPrice: 20}},
		Subtotal:     200, Tax: 30, Total: 230,
		Status: models.QuoteStatusAccepted,
	}
	id, err := repo.CreateQuote(ctx, q)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	q.ID = id

	inv1, err := repo.CreateInvoiceFromQuote(ctx, q, "INV-0001")
	if err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	inv2, err := repo.CreateInvoiceFromQuote(ctx, q, "INV-0002")
	if err != nil {
		t.Fatalf("second conversion: %v", err)
	}
	if inv1.ID != inv2.ID || inv2.InvoiceNumber != "INV-0001" {
		t.Fatalf("conversion not idempotent: %+v vs %+v", inv1, inv2)
	}
	if inv1.Total != 230 || len(inv1.LineItems) != 1 {
		t.Fatalf("invoice did not copy quote: %+v", inv1)
	}
}

func TestChatRoomLazyCreateAndOrdering(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	landlordID, contractorID := seedUsers(t, repo)

	jobID := seedOpenJob(t, repo, landlordID)
	if ok, err := repo.AssignOpenJob(ctx, jobID, contractorID); err != nil || !ok {
		t.Fatalf("assign: ok=%v err=%v", ok, err)
	}
	j, _ := repo.GetJob(ctx, jobID)

	room1, err := repo.GetOrCreateRoom(ctx, j)
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	room2, err := repo.GetOrCreateRoom(ctx, j)
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if room1.ID != room2.ID {
		t.Fatalf("job must have exactly one room, got %d and %d", room1.ID, room2.ID)
	}

	for i, body := range []string{"hello", "when can you start?", "tomorrow"} {
		if _, err := repo.CreateMessage(ctx, &models.Message{RoomID: room1.ID, SenderID: landlordID, Body: body, Created: int64(1000 + i)}); err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
	}
	msgs, err := repo.ListMessages(ctx, room1.ID, 10, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Body != "hello" || msgs[2].Body != "tomorrow" {
		t.Fatalf("messages out of creation order: %+v", msgs)
	}
}

func TestServiceAreas(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	_, contractorID := seedUsers(t, repo)

	profileID, err := repo.CreateProfile(ctx, &models.ContractorProfile{UserID: contractorID, Trades: []string{"plumbing"}})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	areaID, err := repo.CreateServiceArea(ctx, &models.ServiceArea{ProfileID: profileID, Latitude: 44.6, Longitude: -63.6, RadiusKm: 25, City: "Halifax", State: "NS"})
	if err != nil {
		t.Fatalf("create area: %v", err)
	}

	areas, err := repo.ListServiceAreas(ctx, profileID)
	if err != nil {
		t.Fatalf("list areas: %v", err)
	}
	if len(areas) != 1 || areas[0].RadiusKm != 25 {
		t.Fatalf("unexpected areas: %+v", areas)
	}

	if err := repo.DeleteServiceArea(ctx, areaID, profileID); err != nil {
		t.Fatalf("delete area: %v", err)
	}
	areas, _ = repo.ListServiceAreas(ctx, profileID)
	if len(areas) != 0 {
		t.Fatalf("area not deleted: %+v", areas)
	}
}
