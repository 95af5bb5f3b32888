package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-kasir/internal/models"
)

func TestCustomerCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	h := NewCustomerHandler(db)

	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"name":"Budi","address":"Jl. Merdeka 1","phone":"0812555"}`))
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}

	w2 := httptest.NewRecorder()
	h.List(w2, httptest.NewRequest(http.MethodGet, "/customers", nil))
	var payload struct {
		Items []models.Customer `json:"items"`
		Total int64             `json:"total"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 1 || payload.Items[0].Name != "Budi" {
		t.Fatalf("unexpected listing: %+v", payload)
	}
}

func TestCustomerCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	h := NewCustomerHandler(db)

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"name":"","address":"","phone":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestCustomerUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	h := NewCustomerHandler(db)
	c := models.Customer{Name: "Siti", Address: "Jl. Anggrek 2", Phone: "0812777"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/customers/update", strings.NewReader(`{"id":1,"name":"Siti A","address":"Jl. Anggrek 2","phone":"0812778"}`))
	w := httptest.NewRecorder()
	h.Update(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var got models.Customer
	if err := db.First(&got, c.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Name != "Siti A" || got.Phone != "0812778" {
		t.Fatalf("update not applied: %+v", got)
	}

	w2 := httptest.NewRecorder()
	h.Delete(w2, httptest.NewRequest(http.MethodPost, "/customers/delete?id=1", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w2.Code)
	}
	var count int64
	db.Model(&models.Customer{}).Count(&count)
	if count != 0 {
		t.Fatalf("customer not deleted")
	}
}
