package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dataload/internal/config"
	"dataload/internal/ingest"
)

// fakeStore is a minimal in-memory ingest.Store for handler tests.
type fakeStore struct {
	customers map[string]bool
	products  map[string]bool
	orders    map[string]bool
	items     map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[string]bool),
		products:  make(map[string]bool),
		orders:    make(map[string]bool),
		items:     make(map[string]bool),
	}
}

func (f *fakeStore) ExistingKeys(ctx context.Context, kind ingest.EntityKind) (map[string]bool, error) {
	keys := make(map[string]bool)
	var src map[string]bool
	switch kind {
	case ingest.KindCustomer:
		src = f.customers
	case ingest.KindProduct:
		src = f.products
	case ingest.KindOrder:
		src = f.orders
	}
	for k := range src {
		keys[k] = true
	}
	return keys, nil
}

func (f *fakeStore) Begin(ctx context.Context) (ingest.Tx, error) {
	return &fakeTx{store: f}, nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) HasCustomer(ctx context.Context, id string) (bool, error) {
	return t.store.customers[id], nil
}
func (t *fakeTx) HasProduct(ctx context.Context, id string) (bool, error) {
	return t.store.products[id], nil
}
func (t *fakeTx) HasOrder(ctx context.Context, id string) (bool, error) {
	return t.store.orders[id], nil
}
func (t *fakeTx) HasOrderItem(ctx context.Context, orderID, productID string) (bool, error) {
	return t.store.items[orderID+"/"+productID], nil
}

func (t *fakeTx) InsertCustomer(ctx context.Context, c ingest.Customer) error {
	t.store.customers[c.CustomerID] = true
	return nil
}
func (t *fakeTx) InsertProduct(ctx context.Context, p ingest.Product) error {
	t.store.products[p.ProductID] = true
	return nil
}
func (t *fakeTx) InsertOrder(ctx context.Context, o ingest.Order) error {
	t.store.orders[o.OrderID] = true
	return nil
}
func (t *fakeTx) InsertOrderItem(ctx context.Context, it ingest.OrderItem) error {
	t.store.items[it.OrderID+"/"+it.ProductID] = true
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error   { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Upload: config.UploadConfig{
			MaxFileSize:   10 << 20,
			ChunkSize:     100,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
		},
	}
}

func newTestServer(limiter *ingest.Limiter) *Server {
	cfg := testConfig()
	service := ingest.NewService(newFakeStore(), cfg.Upload.ChunkSize)
	if limiter == nil {
		limiter = ingest.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	}
	return NewServer(service, limiter, cfg)
}

// multipartBody builds a multipart form with one file part.
func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}

func TestHandleUploadCSV(t *testing.T) {
	srv := newTestServer(nil)

	csv := "customer_id,name,email\nC1,Alice,alice@example.com\nC2,Bob,broken\n"
	buf, contentType := multipartBody(t, "customers.csv", csv)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.UploadID == "" {
		t.Error("upload_id missing")
	}
	if result.CustomersCreated != 1 {
		t.Errorf("customers created = %d, want 1", result.CustomersCreated)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want 1", result.Errors)
	}
}

func TestHandleUploadUnsupportedExtension(t *testing.T) {
	srv := newTestServer(nil)

	buf, contentType := multipartBody(t, "data.xlsx", "junk")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Error("error message missing")
	}
}

func TestHandleUploadNoFile(t *testing.T) {
	srv := newTestServer(nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("name", "value")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUploadMalformedJSONReturnsPartialResult(t *testing.T) {
	// Chunk size 1 so the record before the bad line commits before
	// decoding fails.
	cfg := testConfig()
	cfg.Upload.ChunkSize = 1
	service := ingest.NewService(newFakeStore(), cfg.Upload.ChunkSize)
	limiter := ingest.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	srv := NewServer(service, limiter, cfg)

	body := "{\"customer_id\":\"C1\",\"name\":\"A\",\"email\":\"a@b.co\"}\nnot json\n"
	buf, contentType := multipartBody(t, "customers.json", body)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.CustomersCreated != 1 {
		t.Errorf("customers created = %d, want 1", result.CustomersCreated)
	}
}

func TestHandleUploadLimiterFull(t *testing.T) {
	limiter := ingest.NewLimiter(1, 50*time.Millisecond)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer limiter.Release()

	srv := newTestServer(limiter)

	buf, contentType := multipartBody(t, "customers.csv", "customer_id,name,email\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}
