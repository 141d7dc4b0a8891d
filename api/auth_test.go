package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/presspool/presspool/api"
	"github.com/presspool/presspool/pkg/models"
	"github.com/presspool/presspool/pkg/repository/mock"
)

func storeUser(t *testing.T, m *mock.Mocks, email, password string, role models.Role, active bool) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	id, err := m.Users.CreateUser(context.Background(), &models.User{
		Username:     email,
		Email:        email,
		Role:         role,
		Active:       active,
		PasswordHash: string(hash),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
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
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Signup_MissingFields",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"email": "alice@example.com", "password": "s3cret"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Signup_BadRole",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"username": "alice", "email": "alice@example.com", "password": "s3cret", "role": "admin"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Signup_PendingApproval",
			method:     http.MethodPost,
			path:       "/signup",
			body:       map[string]string{"username": "alice", "email": "alice@example.com", "password": "s3cret", "role": "speaker", "contact": "@alice"},
			wantStatus: http.StatusCreated,
			checkBody: func(t *testing.T, b []byte) {
				var resp struct {
					ID     int64  `json:"id"`
					Status string `json:"status"`
				}
				if err := json.Unmarshal(b, &resp); err != nil {
					t.Fatalf("unmarshal signup response: %v", err)
				}
				if resp.ID == 0 || resp.Status != "pending_approval" {
					t.Fatalf("unexpected signup response: %#v", resp)
				}
			},
		},
		{
			name:   "Signup_DuplicateEmail",
			method: http.MethodPost,
			path:   "/signup",
			body:   map[string]string{"username": "dup", "email": "dup@example.com", "password": "pw", "role": "journalist"},
			prepare: func(m *mock.Mocks) {
				m.Users.CreateErr = fmt.Errorf("unique constraint")
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "Signin_InvalidRequest",
			method:     http.MethodPost,
			path:       "/signin",
			body:       "not a json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Signin_MissingUser",
			method:     http.MethodPost,
			path:       "/signin",
			body:       map[string]string{"email": "missing@example.com", "password": "nop"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "Signin_PendingAccount",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "bob@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				storeUser(t, m, "bob@example.com", "hunter2", models.RoleSpeaker, false)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "Signin_WrongPassword",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "c@example.com", "password": "wrongpw"},
			prepare: func(m *mock.Mocks) {
				storeUser(t, m, "c@example.com", "rightpw", models.RoleSpeaker, true)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "Signin_Success",
			method: http.MethodPost,
			path:   "/signin",
			body:   map[string]string{"email": "jane@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				storeUser(t, m, "jane@example.com", "hunter2", models.RoleJournalist, true)
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
				tok, err := jwt.Parse(ar.Token, func(token *jwt.Token) (any, error) { return []byte(secret), nil })
				if err != nil {
					t.Fatalf("invalid token: %v", err)
				}
				claims, ok := tok.Claims.(jwt.MapClaims)
				if !ok {
					t.Fatalf("unexpected claims type")
				}
				if claims["role"] != "journalist" {
					t.Fatalf("missing or wrong role claim: %v", claims["role"])
				}
				if _, ok := claims["user_id"]; !ok {
					t.Fatalf("missing user_id claim")
				}
				if expF, ok := claims["exp"].(float64); !ok || int64(expF) < time.Now().Unix() {
					t.Fatalf("invalid exp claim")
				}
			},
		},
		{
			name:       "Signout_OK",
			method:     http.MethodPost,
			path:       "/signout",
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
			handler := api.NewAuthHandler(mocks.Users, secret, tokenDur)

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
			data, _ := io.ReadAll(res.Body)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("%s: expected status %d got %d body=%s", tt.name, tt.wantStatus, res.StatusCode, string(data))
			}
			if tt.checkBody != nil {
				tt.checkBody(t, data)
			}
		})
	}
}
