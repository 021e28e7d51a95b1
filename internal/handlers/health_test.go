package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.h.HealthCheck(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestReadinessCheck(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.h.ReadinessCheck(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Albums int    `json:"albums"`
		Photos int    `json:"photos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	// The fixture seeds one album with one photo.
	if body.Albums != 1 || body.Photos != 1 {
		t.Errorf("counts = %d albums, %d photos, want 1 and 1", body.Albums, body.Photos)
	}
}

func TestGetVersion(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.h.GetVersion(rec, httptest.NewRequest("GET", "/version", nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["version"] == "" {
		t.Error("version field missing")
	}
	if body["goVersion"] == "" {
		t.Error("goVersion field missing")
	}
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.h.GetStats(rec, httptest.NewRequest("GET", "/api/stats", nil))

	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["albums"] != 1 || body["photos"] != 1 {
		t.Errorf("stats = %v, want 1 album, 1 photo", body)
	}
}

func TestTriggerRescanRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	makeRequest := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/rescan", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		}
		rec := httptest.NewRecorder()
		f.h.TriggerRescan(rec, req)
		return rec
	}

	if rec := makeRequest(""); rec.Code != http.StatusForbidden {
		t.Errorf("anonymous rescan status = %d, want 403", rec.Code)
	}

	plain := f.sessionFor(t, "alice", false)
	if rec := makeRequest(plain); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin rescan status = %d, want 403", rec.Code)
	}

	admin := f.sessionFor(t, "root", true)
	rec := makeRequest(admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin rescan status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "started" && body["status"] != "already_running" {
		t.Errorf("status = %q, want started or already_running", body["status"])
	}
}
