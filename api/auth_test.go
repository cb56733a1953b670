package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fixboard/fixboard/api"
	"github.com/fixboard/fixboard/internal/password"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository/mock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func mustScrypt(t *testing.T, pw string) string {
	t.Helper()
	hash, err := password.HashScryptLegacy(pw, []byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("scrypt hash: %v", err)
	}
	return hash
}

func TestAuthHandlers(t *testing.T) {
	secret := "testsecret"
	tokenDur := 1 * time.Hour

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		prepare    func(m *mock.Mocks)
		wantStatus int
		checkBody  func(t *testing.T, body []byte)
	}{
		{
			name:       "Signup_InvalidRequest",
			method:     http.MethodPost,
			path:       "/signup",
			body:       "not a json",
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signup_MissingFields_Name",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"email": "alice@example.com", "password": "s3cret", "user_type": "landlord"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signup_MissingFields_Email",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"name": "Alice", "password": "s3cret", "user_type": "landlord"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signup_MissingFields_Password",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"name": "Alice", "email": "alice@example.com", "user_type": "landlord"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signup_BadUserType",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"name": "Alice", "email": "alice@example.com", "password": "s3cret", "user_type": "plumber"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signup_Landlord_Success",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"name": "Alice", "email": "alice@example.com", "password": "s3cret", "user_type": "landlord"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusCreated,
			checkBody: func(t *testing.T, b []byte) {
				var ar struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(b, &ar); err != nil {
					t.Fatalf("unmarshal token: %v", err)
				}
				if ar.Token == "" {
					t.Fatalf("empty token")
				}
				if _, err := jwt.Parse(ar.Token, func(token *jwt.Token) (any, error) { return []byte(secret), nil }); err != nil {
					t.Fatalf("invalid token: %v", err)
				}
			},
		},
		{
			name:   "Signup_Contractor_CreatesProfile",
			method: http.MethodPost,
			path:   "/signup",
			body:   map[string]string{"name": "Carl", "email": "carl@example.com", "password": "s3cret", "user_type": "contractor"},
			prepare: func(m *mock.Mocks) {
				m.ProfileRepo.Stored = nil
			},
			wantStatus: http.StatusCreated,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:   "Signup_DuplicateEmail",
			method: http.MethodPost,
			path:   "/signup",
			body:   map[string]string{"name": "Dup", "email": "dup@example.com", "password": "pw", "user_type": "landlord"},
			prepare: func(m *mock.Mocks) {
				m.UserRepo.CreateErr = fmt.Errorf("unique constraint")
			},
			wantStatus: http.StatusInternalServerError,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signin_InvalidRequest",
			method:     http.MethodPost,
			path:       "/signin",
			body:       "not a json",
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:   "Signin_MissingUser",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "missing@example.com", "password": "nop"},
			prepare: func(m *mock.Mocks) {
				m.UserRepo.Stored = nil
			},
			wantStatus: http.StatusUnauthorized,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:   "Signin_Success",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "bob@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
				m.UserRepo.Stored = &models.User{ID: 2, Email: "bob@example.com", UserType: models.UserTypeLandlord, PasswordHash: string(hash), HashScheme: models.HashSchemeBcrypt}
			},
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte) {
				var ar struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(b, &ar); err != nil {
					t.Fatalf("unmarshal token: %v", err)
				}
				if ar.Token == "" {
					t.Fatalf("empty token")
				}
			},
		},
		{
			name:   "Signin_WrongPassword",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "c@example.com", "password": "wrongpw"},
			prepare: func(m *mock.Mocks) {
				hash, _ := bcrypt.GenerateFromPassword([]byte("rightpw"), bcrypt.DefaultCost)
				m.UserRepo.Stored = &models.User{ID: 3, Email: "c@example.com", UserType: models.UserTypeLandlord, PasswordHash: string(hash), HashScheme: models.HashSchemeBcrypt}
			},
			wantStatus: http.StatusUnauthorized,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:   "Signin_LegacyScryptHash",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "old@example.com", "password": "legacy-pass"},
			prepare: func(m *mock.Mocks) {
				hash := mustScrypt(t, "legacy-pass")
				m.UserRepo.Stored = &models.User{ID: 4, Email: "old@example.com", UserType: models.UserTypeContractor, PasswordHash: hash, HashScheme: models.HashSchemeScrypt}
			},
			wantStatus: http.StatusOK,
			checkBody:  func(t *testing.T, b []byte) {},
		},
		{
			name:       "Signout_OK",
			method:     http.MethodPost,
			path:       "/signout",
			body:       nil,
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte) {
				if !bytes.Contains(b, []byte("signed out")) {
					t.Fatalf("unexpected body: %s", string(b))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := mock.NewMocks()
			if tt.prepare != nil {
				tt.prepare(mocks)
			}
			handler := api.NewAuthHandler(mocks.UserRepo, mocks.ProfileRepo, secret, tokenDur)

			var bodyReader io.Reader
			if tt.body != nil {
				b, _ := json.Marshal(tt.body)
				bodyReader = bytes.NewReader(b)
			}
			req := httptest.NewRequest(tt.method, tt.path, bodyReader)
			w := httptest.NewRecorder()

			switch tt.path {
			case "/signup":
				handler.Signup(w, req)
			case "/signin":
				handler.Signin(w, req)
			case "/signout":
				handler.Signout(w, req)
			default:
				t.Fatalf("unknown path %s", tt.path)
			}

			res := w.Result()
			defer res.Body.Close()
			if res.StatusCode != tt.wantStatus {
				b, _ := io.ReadAll(res.Body)
				t.Fatalf("want status %d got %d (body: %s)", tt.wantStatus, res.StatusCode, string(b))
			}
			b, _ := io.ReadAll(res.Body)
			tt.checkBody(t, b)
		})
	}
}
