package core

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := newTestCodec(t)
	authService := NewAuthService(newFakeUserRepo(), codec)
	receiptService := NewReceiptService(newFakeReceiptRepo(), nil)
	return NewRouter(Config{}, authService, receiptService, codec)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("response %q has no error envelope", w.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestAuthEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	// Register.
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	// Duplicate registration.
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", w.Code)
	}
	if code := errorCode(t, w); code != "USERNAME_TAKEN" {
		t.Fatalf("duplicate register code = %s, want USERNAME_TAKEN", code)
	}

	// Wrong password.
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "carol", "password": "WrongP@ss1", "remember_me": false,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", w.Code)
	}

	// Login with remember_me returns both token kinds.
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1", "remember_me": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("login response missing tokens: %s", w.Body.String())
	}
	if scheme, _ := body["token_type"].(string); scheme != "bearer" {
		t.Fatalf("token_type = %q, want bearer", scheme)
	}

	// Who am I.
	w = doJSON(t, r, http.MethodGet, "/api/auth/me", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["username"]; got != "carol" {
		t.Fatalf("me username = %v, want carol", got)
	}

	// Refresh mints a new access token and never a refresh token.
	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", refresh, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", w.Code, w.Body.String())
	}
	body = decodeBody(t, w)
	if tok, _ := body["access_token"].(string); tok == "" {
		t.Fatalf("refresh response missing access token: %s", w.Body.String())
	}
	if _, present := body["refresh_token"]; present {
		t.Fatalf("refresh response must not contain a refresh token: %s", w.Body.String())
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "ab", "password": "StrongP@ss1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := errorCode(t, w); code != "USERNAME_TOO_SHORT" {
		t.Fatalf("code = %s, want USERNAME_TOO_SHORT", code)
	}
}

func TestProtectedEndpointsRequireBearer(t *testing.T) {
	r := newTestRouter(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/auth/refresh"},
		{http.MethodGet, "/api/receipts"},
		{http.MethodPost, "/api/receipts"},
	} {
		w := doJSON(t, r, tc.method, tc.path, "", nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s %s without token status = %d, want 403", tc.method, tc.path, w.Code)
		}
	}

	// Malformed scheme is rejected before any verification.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("malformed scheme status = %d, want 403", w.Code)
	}
}

func TestRefreshRejectsAccessTokenOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1",
	})
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1", "remember_me": false,
	})
	access, _ := decodeBody(t, w)["access_token"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", access, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("refresh with access token status = %d, want 403", w.Code)
	}
	if code := errorCode(t, w); code != "WRONG_TOKEN_TYPE" {
		t.Fatalf("code = %s, want WRONG_TOKEN_TYPE", code)
	}
}

func TestReceiptEndpoints(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1",
	})
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "carol", "password": "StrongP@ss1", "remember_me": false,
	})
	access, _ := decodeBody(t, w)["access_token"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/receipts", access, map[string]any{
		"store": "Grocery Mart", "total": 42.5, "date": "2024-05-01T12:00:00Z",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create receipt status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/receipts", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list receipts status = %d, body %s", w.Code, w.Body.String())
	}
	receipts, _ := decodeBody(t, w)["receipts"].([]any)
	if len(receipts) != 1 {
		t.Fatalf("listing has %d receipts, want 1", len(receipts))
	}

	// Missing fields are rejected.
	w = doJSON(t, r, http.MethodPost, "/api/receipts", access, map[string]any{"total": 1.0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create without store status = %d, want 400", w.Code)
	}
}
