package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"receipts/internal/core"
	"receipts/internal/kv/memory"
	"receipts/internal/repository"
	"receipts/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewReceiptService(repository.New(memory.New()), nil, nil)
	srv := NewServer(":0", svc)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
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
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleForm() map[string]any {
	return map[string]any{
		"title":     "점심 식사",
		"amount":    9000,
		"date":      time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		"category":  "식비",
		"storeName": "김밥천국",
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s = %d", path, rec.Code)
		}
	}
}

func TestReceiptCRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/receipts", sampleForm())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Receipt](t, rec)
	if created.ID == "" || created.Title != "점심 식사" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/receipts/"+created.ID, map[string]any{"amount": 12000})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[core.Receipt](t, rec)
	if updated.Amount != 12000 || updated.ID != created.ID {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", rec.Code)
	}
}

func TestCreateReceiptValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"zero amount", func(m map[string]any) { m["amount"] = 0 }},
		{"blank title", func(m map[string]any) { m["title"] = "  " }},
		{"unknown category", func(m map[string]any) { m["category"] = "외식" }},
		{"future date", func(m map[string]any) {
			m["date"] = time.Now().AddDate(0, 0, 2).Format("2006-01-02")
		}},
		{"garbled date", func(m map[string]any) { m["date"] = "언젠가" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := sampleForm()
			tt.mutate(form)
			rec := doJSON(t, srv, http.MethodPost, "/api/receipts", form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/receipts", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d", w.Code)
	}
}

func TestListReceiptsFilters(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/receipts", sampleForm())
	other := sampleForm()
	other["title"] = "택시"
	other["category"] = "교통비"
	doJSON(t, srv, http.MethodPost, "/api/receipts", other)

	rec := doJSON(t, srv, http.MethodGet, "/api/receipts", nil)
	if got := decode[[]core.Receipt](t, rec); len(got) != 2 {
		t.Fatalf("unfiltered = %d", len(got))
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/receipts?category=교통비", nil)
	got := decode[[]core.Receipt](t, rec)
	if len(got) != 1 || got[0].Title != "택시" {
		t.Fatalf("category filter = %+v", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/receipts?q=점심", nil)
	if got := decode[[]core.Receipt](t, rec); len(got) != 1 {
		t.Fatalf("query filter = %+v", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/receipts?category=없는분류", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad category = %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, srv, http.MethodPost, "/api/receipts", sampleForm())

	rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	var stats struct {
		Summary struct {
			TotalAmount int64 `json:"totalAmount"`
			TotalCount  int   `json:"totalCount"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Summary.TotalCount != 1 || stats.Summary.TotalAmount != 9000 {
		t.Fatalf("summary = %+v", stats.Summary)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, srv, http.MethodPost, "/api/receipts", sampleForm())

	rec := doJSON(t, srv, http.MethodGet, "/api/export?format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv export = %d", rec.Code)
	}
	body := rec.Body.Bytes()
	if !bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("csv missing BOM")
	}
	if !strings.Contains(string(body), "ID,제목,상점명,금액,날짜,카테고리,설명,생성일,수정일") {
		t.Fatalf("csv header missing: %q", string(body[:60]))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("disposition = %q", cd)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("json export = %d", rec.Code)
	}
	if got := decode[[]core.Receipt](t, rec); len(got) != 1 {
		t.Fatalf("json export = %+v", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/export?format=pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format = %d", rec.Code)
	}
}

func TestImportEndpoint(t *testing.T) {
	srv := newTestServer(t)

	payload := `[{"id":"i-1","title":"a","storeName":"s","amount":1000,"date":"2024-01-01","category":"식비"}]`
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d: %s", w.Code, w.Body.String())
	}
	res := decode[repository.ImportResult](t, w)
	if res.Imported != 1 || res.Skipped != 0 {
		t.Fatalf("result = %+v", res)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(`{"no":"array"}`))
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad import = %d", w.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/parse", map[string]any{
		"text": "스타벅스 강남점\n2024-03-05\n합계 4,500원",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("parse text = %d: %s", rec.Code, rec.Body.String())
	}
	var parsed struct {
		StoreName string `json:"storeName"`
		Amount    int64  `json:"amount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("decode parsed: %v", err)
	}
	if parsed.Amount != 4500 {
		t.Fatalf("parsed = %+v", parsed)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/parse", map[string]any{"image": "data:image/png;base64,AAAA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("parse image = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/parse", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty parse = %d", rec.Code)
	}
}
