package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fixboard/fixboard/api"
	dbfs "github.com/fixboard/fixboard/db"
	"github.com/fixboard/fixboard/internal/config"
	dbpkg "github.com/fixboard/fixboard/internal/db"
)

const testSecret = "testsecret"

// newTestServer boots the full router over a fresh in-memory database with
// the real migrations applied, so handler tests exercise the same SQL the
// server runs.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := dbpkg.New(ctx, fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := dbpkg.Migrate(ctx, conn, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Addr:          ":0",
		Env:           "development",
		JWTSecret:     testSecret,
		APITimeout:    5 * time.Second,
		TokenDuration: time.Hour,
	}
	ts := httptest.NewServer(api.SetupRoutes(cfg, "test", "now", conn, nil))
	t.Cleanup(ts.Close)
	return ts
}

// signup registers a user and returns the bearer token.
func signup(t *testing.T, ts *httptest.Server, name, email, userType string) string {
	t.Helper()
	status, body := doJSON(t, ts, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "hunter2", "user_type": userType,
	})
	if status != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, status, body)
	}
	var ar struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &ar); err != nil || ar.Token == "" {
		t.Fatalf("signup %s: bad token response %s", email, body)
	}
	return ar.Token
}

// doJSON issues a request with an optional bearer token and JSON body, and
// returns the status and raw body.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}
