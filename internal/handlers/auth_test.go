package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-kasir/auth"
	"github.com/diewo77/go-kasir/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username, password, level string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Username: username, Password: string(hash), Level: level}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func hasSessionCookie(res *http.Response) bool {
	for _, c := range res.Cookies() {
		if c.Name == "session" && c.Value != "" {
			return true
		}
	}
	return false
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	h := NewAuthHandler(db)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"kasir1","password":"rahasia"}`))
	w := httptest.NewRecorder()
	h.register(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}
	if !hasSessionCookie(w.Result()) {
		t.Fatalf("expected session cookie on register")
	}
	var u models.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Level != models.LevelKasir {
		t.Fatalf("default level should be KASIR, got %s", u.Level)
	}
	// Password hash must never leak through the JSON view.
	if strings.Contains(w.Body.String(), "rahasia") || strings.Contains(w.Body.String(), "$2a$") {
		t.Fatalf("password material in response: %s", w.Body.String())
	}

	// Same username again is a conflict.
	req2 := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"kasir1","password":"other"}`))
	w2 := httptest.NewRecorder()
	h.register(w2, req2)
	if w2.Code != http.StatusConflict {
		t.Fatalf("duplicate username: expected 409 got %d", w2.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	h := NewAuthHandler(db)

	cases := []string{
		`{"username":"","password":"x"}`,
		`{"username":"a","password":""}`,
		`{"username":"a","password":"x","level":"SUPERVISOR"}`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		h.register(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, w.Code)
		}
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	h := NewAuthHandler(db)
	seedUser(t, db, "admin", "admin123", models.LevelAdmin)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"admin123"}`))
	w := httptest.NewRecorder()
	h.login(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	if !hasSessionCookie(w.Result()) {
		t.Fatalf("expected session cookie on login")
	}

	// Wrong password and unknown user both come back as the same 401.
	for _, body := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"ghost","password":"admin123"}`,
	} {
		w := httptest.NewRecorder()
		h.login(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body)))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: expected 401 got %d", body, w.Code)
		}
	}
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	h := NewAuthHandler(db)
	u := seedUser(t, db, "kasir2", "pw", models.LevelKasir)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), u.ID))
	w := httptest.NewRecorder()
	h.Me(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var got models.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Username != "kasir2" {
		t.Fatalf("unexpected user: %+v", got)
	}

	// No context user -> 401.
	w2 := httptest.NewRecorder()
	h.Me(w2, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w2.Code)
	}
}
