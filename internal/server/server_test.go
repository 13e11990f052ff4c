package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockTracker/internal/collector"
	"StockTracker/internal/model"
	"StockTracker/internal/pricecache"
	"StockTracker/internal/scheduler"
	"StockTracker/internal/store"
	"StockTracker/internal/tracker"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type harness struct {
	handler http.Handler
	quotes  *collector.MockFetcher
	svc     *tracker.Service
}

func newHarness(t *testing.T, auth store.Authorizer, opts Options) *harness {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "stocks.json"), "", auth)
	if err != nil {
		t.Fatal(err)
	}
	st.Clock = func() time.Time { return fixedNow }
	quotes := &collector.MockFetcher{Price: 101.5}
	svc := tracker.New(st, pricecache.New(nil, 0), quotes, nil, nil)
	svc.Clock = func() time.Time { return fixedNow }
	ref := scheduler.NewRefresher(st, svc, 10, 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		ref.Stop()
	})
	srv := New(ctx, svc, ref, opts)
	return &harness{handler: srv.Handler(), quotes: quotes, svc: svc}
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil, Options{})
	rr := h.do(t, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Server is running!") {
		t.Errorf("got %d %s", rr.Code, rr.Body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}

func TestStocks_EmptyIsArray(t *testing.T) {
	h := newHarness(t, nil, Options{})
	rr := h.do(t, http.MethodGet, "/api/stocks", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body = %q", rr.Body)
	}
}

func TestAddEditExitDeleteFlow(t *testing.T) {
	h := newHarness(t, nil, Options{})

	rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":"aapl","entry":150,"type":"stock"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("add: %d %s", rr.Code, rr.Body)
	}
	var added struct {
		Success bool              `json:"success"`
		Stock   model.StockRecord `json:"stock"`
	}
	decodeBody(t, rr, &added)
	if !added.Success || added.Stock.Ticker != "AAPL" || added.Stock.Entry != "150" || added.Stock.Sheet != "Manual Entry" {
		t.Errorf("added = %+v", added)
	}

	if rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":"AAPL"}`); rr.Code != http.StatusConflict {
		t.Errorf("duplicate add: %d", rr.Code)
	}
	if rr := h.do(t, http.MethodPost, "/api/add-stock", `{"entry":"1"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing ticker: %d", rr.Code)
	}

	rr = h.do(t, http.MethodPost, "/api/edit-stock", `{"ticker":"AAPL","priceTarget":"220","entry":""}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"priceTarget":"220"`) || !strings.Contains(rr.Body.String(), `"entry":"150"`) {
		t.Errorf("edit: %d %s", rr.Code, rr.Body)
	}
	if rr := h.do(t, http.MethodPost, "/api/edit-stock", `{"ticker":"ZZZ","entry":"1"}`); rr.Code != http.StatusNotFound {
		t.Errorf("edit missing: %d", rr.Code)
	}

	rr = h.do(t, http.MethodPost, "/api/update-exit", `{"ticker":"AAPL","exitValue":"180","exitNotes":"target hit"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("exit: %d %s", rr.Code, rr.Body)
	}
	var exited struct {
		Stock         model.StockRecord `json:"stock"`
		ReturnPercent string            `json:"returnPercent"`
	}
	decodeBody(t, rr, &exited)
	if exited.ReturnPercent != "20.00" || exited.Stock.Status != "Closed" || exited.Stock.ExitedDate != "2024-05-01T09:30:00Z" {
		t.Errorf("exit = %+v", exited)
	}
	if rr := h.do(t, http.MethodPost, "/api/edit-stock", `{"ticker":"AAPL","status":"Open"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("reopen via edit: %d %s", rr.Code, rr.Body)
	}
	if rr := h.do(t, http.MethodPost, "/api/update-exit", `{"ticker":"AAPL"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("exit without value: %d", rr.Code)
	}

	if rr := h.do(t, http.MethodPost, "/api/delete-stock", `{"ticker":"NOPE"}`); rr.Code != http.StatusNotFound {
		t.Errorf("delete missing: %d", rr.Code)
	}
	if rr := h.do(t, http.MethodPost, "/api/delete-stock", `{"ticker":"aapl"}`); rr.Code != http.StatusOK {
		t.Errorf("delete: %d %s", rr.Code, rr.Body)
	}
	if rr := h.do(t, http.MethodGet, "/api/stocks", ""); strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("after delete: %s", rr.Body)
	}
}

func TestBadJSON(t *testing.T) {
	h := newHarness(t, nil, Options{})
	rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), `"error"`) {
		t.Errorf("got %d %s", rr.Code, rr.Body)
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	h := newHarness(t, nil, Options{})
	body, ct := multipartBody(t, "file", "picks.csv", "Ticker,Entry,Current Price\nAAPL,150,160\nTSLA,200,190\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body)
	}
	var res struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Stocks  []model.StockRecord `json:"stocks"`
		Total   int                 `json:"total"`
	}
	decodeBody(t, rr, &res)
	if !res.Success || res.Total != 2 || len(res.Stocks) != 2 || res.Message != "Successfully uploaded 2 stocks and options" {
		t.Errorf("upload result = %+v", res)
	}
}

func TestUpload_Errors(t *testing.T) {
	h := newHarness(t, nil, Options{})
	if rr := h.do(t, http.MethodPost, "/api/upload", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("no file: %d", rr.Code)
	}

	body, ct := multipartBody(t, "other", "x.csv", "Ticker\nA\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "No file uploaded") {
		t.Errorf("wrong field: %d %s", rr.Code, rr.Body)
	}

	body, ct = multipartBody(t, "file", "broken.xlsx", "definitely not a zip")
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rr = httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "error parsing file") {
		t.Errorf("corrupt file: %d %s", rr.Code, rr.Body)
	}
}

func TestStocks_QueryAppliesPipeline(t *testing.T) {
	h := newHarness(t, nil, Options{})
	for _, body := range []string{
		`{"ticker":"B","entry":"10","currentPrice":"12"}`,
		`{"ticker":"A","entry":"10","currentPrice":"5"}`,
		`{"ticker":"OPT","type":"Option"}`,
	} {
		if rr := h.do(t, http.MethodPost, "/api/add-stock", body); rr.Code != http.StatusOK {
			t.Fatalf("seed: %d %s", rr.Code, rr.Body)
		}
	}

	rr := h.do(t, http.MethodGet, "/api/stocks?type=stock&sort=currentPrice&dir=asc", "")
	var recs []model.StockRecord
	decodeBody(t, rr, &recs)
	if len(recs) != 2 || recs[0].Ticker != "A" || recs[1].Ticker != "B" {
		t.Fatalf("got %+v", recs)
	}
	if recs[1].ReturnSinceEntry != "20.00" {
		t.Errorf("decorated return = %q", recs[1].ReturnSinceEntry)
	}

	if rr := h.do(t, http.MethodGet, "/api/stocks?sort=bogus", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad sort: %d", rr.Code)
	}
	if rr := h.do(t, http.MethodGet, "/api/stocks?window=2w", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad window: %d", rr.Code)
	}
}

func TestQuote(t *testing.T) {
	h := newHarness(t, nil, Options{})
	rr := h.do(t, http.MethodGet, "/api/stock-price/msft", "")
	var q model.Quote
	decodeBody(t, rr, &q)
	if rr.Code != http.StatusOK || q.Ticker != "MSFT" || q.Price != 101.5 {
		t.Errorf("got %d %+v", rr.Code, q)
	}

	h.quotes.Err = context.DeadlineExceeded
	rr = h.do(t, http.MethodGet, "/api/stock-price/IBM", "")
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "error fetching stock price") {
		t.Errorf("upstream failure: %d %s", rr.Code, rr.Body)
	}
}

func TestPreviewReturn(t *testing.T) {
	h := newHarness(t, nil, Options{})
	rr := h.do(t, http.MethodPost, "/api/preview-return", `{"entry":"200","exitValue":190}`)
	if strings.TrimSpace(rr.Body.String()) != `{"returnPercent":"-5.00"}` {
		t.Errorf("got %s", rr.Body)
	}
}

func TestAccessCode(t *testing.T) {
	h := newHarness(t, store.AccessCode{Code: "s3cret"}, Options{})

	if rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":"AAPL"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("no code: %d", rr.Code)
	}
	if rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":"AAPL"}`, AccessCodeHeader, "wrong"); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong code: %d", rr.Code)
	}
	if rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":"AAPL"}`, AccessCodeHeader, "s3cret"); rr.Code != http.StatusOK {
		t.Errorf("right code: %d %s", rr.Code, rr.Body)
	}
	if rr := h.do(t, http.MethodGet, "/api/stocks", ""); !strings.Contains(rr.Body.String(), "AAPL") {
		t.Errorf("reads stay open: %s", rr.Body)
	}
	if rr := h.do(t, http.MethodPost, "/api/refresh-prices", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("refresh without code: %d", rr.Code)
	}
}

func TestRefreshPrices(t *testing.T) {
	h := newHarness(t, store.AccessCode{Code: "c"}, Options{})
	if rr := h.do(t, http.MethodPost, "/api/add-stock", `{"ticker":"AAPL","entry":"100"}`, AccessCodeHeader, "c"); rr.Code != http.StatusOK {
		t.Fatalf("seed: %d", rr.Code)
	}
	rr := h.do(t, http.MethodPost, "/api/refresh-prices", "", AccessCodeHeader, "c")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := h.svc.Store.FindByTicker(context.Background(), "AAPL")
		if err == nil && rec.CurrentPrice == "101.5" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("current price was not refreshed")
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>tracker</h1>"), 0644); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, nil, Options{StaticDir: dir})
	rr := h.do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "tracker") {
		t.Errorf("static: %d %s", rr.Code, rr.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, nil, Options{})
	rr := h.do(t, http.MethodOptions, "/api/add-stock", "")
	if rr.Code != http.StatusNoContent || !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), AccessCodeHeader) {
		t.Errorf("preflight: %d %v", rr.Code, rr.Header())
	}
}
