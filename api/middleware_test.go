package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/presspool/presspool/api"
	"github.com/presspool/presspool/pkg/models"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	resOpt := wOpt.Result()
	defer resOpt.Body.Close()
	if resOpt.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", resOpt.StatusCode)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header set, got %q", got)
	}

	// GET should pass through and set headers
	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	resGet := wGet.Result()
	defer resGet.Body.Close()
	if resGet.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", resGet.StatusCode)
	}
	if got := resGet.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Fatalf("expected Allow-Methods to include GET, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := api.RecoveryMiddleware(pan)
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic recovery, got %d", res.StatusCode)
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler2 := api.RecoveryMiddleware(ok)
	w2 := httptest.NewRecorder()
	handler2.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for normal path, got %d", w2.Result().StatusCode)
	}
}

func signToken(t *testing.T, secret string, userID int64, role models.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tokStr, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokStr
}

func TestJWTAuthMiddlewareWithSecret(t *testing.T) {
	secret := "s3cr3t"
	var gotUserID int64
	var gotRole models.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := r.Context().Value(api.CtxUserID).(int64); ok {
			gotUserID = id
		}
		if role, ok := r.Context().Value(api.CtxRole).(models.Role); ok {
			gotRole = role
		}
		w.WriteHeader(http.StatusOK)
	})
	mw := api.JWTAuthMiddlewareWithSecret(secret)
	handler := mw(next)

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "MissingHeader", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "EmptyBearer", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "BadToken", authHeader: "Bearer bad.token.here", wantStatus: http.StatusUnauthorized},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/jwt", nil)
			if c.authHeader != "" {
				req.Header.Set("Authorization", c.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Result().StatusCode != c.wantStatus {
				t.Fatalf("%s: want %d got %d", c.name, c.wantStatus, w.Result().StatusCode)
			}
		})
	}

	// a valid token lands the claims in the request context
	req := httptest.NewRequest(http.MethodGet, "/jwt", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, 42, models.RoleSpeaker))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("valid token: expected 200 got %d", w.Result().StatusCode)
	}
	if gotUserID != 42 || gotRole != models.RoleSpeaker {
		t.Fatalf("claims not propagated: user_id=%d role=%q", gotUserID, gotRole)
	}

	// token signed with another secret is rejected
	req = httptest.NewRequest(http.MethodGet, "/jwt", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "othersecret", 42, models.RoleSpeaker))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401 got %d", w.Result().StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	secret := "s3cr3t"
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	chain := api.JWTAuthMiddlewareWithSecret(secret)(api.RequireRole(models.RoleJournalist)(next))

	// matching role passes
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, 1, models.RoleJournalist))
	w := httptest.NewRecorder()
	chain.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("journalist: expected 200 got %d", w.Result().StatusCode)
	}

	// wrong role is forbidden
	req = httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, 2, models.RoleSpeaker))
	w = httptest.NewRecorder()
	chain.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("speaker: expected 403 got %d", w.Result().StatusCode)
	}

	// no auth context at all is forbidden too
	w = httptest.NewRecorder()
	api.RequireRole(models.RoleJournalist)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))
	if w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403 got %d", w.Result().StatusCode)
	}
}
