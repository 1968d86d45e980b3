package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"energi/internal/core"
	"energi/internal/dataset"
	"energi/internal/dataset/memory"
	"energi/internal/ledger"
)

const testBMR = 1360

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := ledger.NewService(memory.New(), nil)
	return NewServer(":0", svc, testBMR, nil)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestInsertEvent(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/events", eventPayload{
		Date:     "2026-03-14",
		Time:     "12:30",
		Category: "FOOD",
		Energy:   600,
		Protein:  30,
		Note:     "lunch",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body.String())
	}

	var day dayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(day.Events) != 2 {
		t.Fatalf("day has %d events, want basal + meal", len(day.Events))
	}
	if day.Events[0].Category != core.CategoryBasal || day.Events[0].Energy != -testBMR {
		t.Errorf("first row should be the basal burn, got %+v", day.Events[0])
	}
	meal := day.Events[1]
	if meal.Activity != core.ActivityEat {
		t.Errorf("food activity = %q, want %q", meal.Activity, core.ActivityEat)
	}
	if meal.EnergyAcc != -testBMR+600 {
		t.Errorf("EnergyAcc = %d, want %d", meal.EnergyAcc, -testBMR+600)
	}
	if meal.Summary != "Meal: lunch" {
		t.Errorf("Summary = %q, want %q", meal.Summary, "Meal: lunch")
	}
}

func TestInsertEvent_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       any
		raw        string
		wantStatus int
	}{
		{
			name:       "malformed JSON",
			raw:        "{not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date",
			body:       eventPayload{Date: "14/03/2026", Time: "12:30", Category: "FOOD", Energy: 600},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad time",
			body:       eventPayload{Date: "2026-03-14", Time: "noon", Category: "FOOD", Energy: 600},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown category",
			body:       eventPayload{Date: "2026-03-14", Time: "12:30", Category: "SNACK", Energy: 600},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "food with negative energy",
			body:       eventPayload{Date: "2026-03-14", Time: "12:30", Category: "FOOD", Energy: -600},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "direct basal insert",
			body:       eventPayload{Date: "2026-03-14", Time: "00:00", Category: "BASAL", Energy: -1360},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rr *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(tt.raw))
				rr = httptest.NewRecorder()
				srv.Handler.ServeHTTP(rr, req)
			} else {
				rr = doJSON(t, srv, http.MethodPost, "/api/events", tt.body)
			}
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestDeleteEvent(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/events", eventPayload{
		Date: "2026-03-14", Time: "12:30", Category: "FOOD", Energy: 600, Note: "lunch",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("insert status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/events/delete", deletePayload{
		Date: "2026-03-14", Time: "12:30", Summary: "Meal: lunch",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rr.Code, rr.Body.String())
	}

	var day dayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(day.Events) != 1 || day.Events[0].Category != core.CategoryBasal {
		t.Errorf("rebuilt day = %+v, want only the basal row", day.Events)
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/events/delete", deletePayload{
		Date: "2026-03-14", Time: "12:30", Summary: "Meal: lunch",
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestDayLedgerAndItems(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/events", eventPayload{
		Date: "2026-03-14", Time: "07:00", Category: "TRAINING",
		Activity: "Running", Energy: -300, Distance: 5.2, Duration: "00:30:00",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("insert status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/ledger?date=2026-03-14", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("ledger status = %d", rr.Code)
	}
	var day dayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode ledger: %v", err)
	}
	if len(day.Events) != 2 {
		t.Fatalf("ledger rows = %d, want 2", len(day.Events))
	}
	if day.Events[1].Duration != "00:30:00" {
		t.Errorf("Duration = %q, want 00:30:00", day.Events[1].Duration)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/items?date=2026-03-14", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("items status = %d", rr.Code)
	}
	var items []ledger.Item
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (basal row excluded)", len(items))
	}
	if items[0].Summary != "Running 5.20 km" {
		t.Errorf("item summary = %q", items[0].Summary)
	}
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)

	for _, p := range []eventPayload{
		{Date: "2026-03-14", Time: "08:00", Category: "FOOD", Energy: 500},
		{Date: "2026-03-14", Time: "17:00", Category: "TRAINING", Activity: "Running", Energy: -300},
	} {
		if rr := doJSON(t, srv, http.MethodPost, "/api/events", p); rr.Code != http.StatusCreated {
			t.Fatalf("insert status = %d, body %s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/analyze?date=2026-03-14", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("analyze status = %d", rr.Code)
	}
	var analysis core.Analysis
	if err := json.Unmarshal(rr.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis.Day.InputEnergy != 500 {
		t.Errorf("day input = %d, want 500", analysis.Day.InputEnergy)
	}
	if analysis.Day.OutputEnergy != testBMR+300 {
		t.Errorf("day output = %d, want %d", analysis.Day.OutputEnergy, testBMR+300)
	}
	if analysis.HasSufficientData {
		t.Error("one logged day should not satisfy the streak minimum")
	}
}

func TestAnalyze_BadDate(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/analyze?date=tomorrow", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

type downStore struct{}

func (downStore) Load(ctx context.Context, name string) ([]core.Event, error) {
	return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: errors.New("connection refused")}
}

func (downStore) Save(ctx context.Context, name string, events []core.Event) error {
	return &dataset.StoreError{Op: "save", Dataset: name, Err: errors.New("connection refused")}
}

func TestStoreFailureMapsToBadGateway(t *testing.T) {
	svc := ledger.NewService(downStore{}, nil)
	srv := NewServer(":0", svc, testBMR, nil)

	rr := doJSON(t, srv, http.MethodGet, "/api/ledger?date=2026-03-14", nil)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502, body %s", rr.Code, rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/events", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}
