package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hanpama/mosaicql/internal/backend"
	"github.com/hanpama/mosaicql/internal/engine"
)

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	dom, err := backend.Build(context.Background(), backend.Config{SqliteDSN: ":memory:"})
	if err != nil {
		t.Fatalf("build domain: %v", err)
	}
	driver := engine.NewDriver(dom.Schema, dom.RootMappings)
	return New(dom.Elaborator, driver, opts...)
}

func TestSimpleQuery(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ city(id: 1) { name } }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Kabul")) {
		t.Fatalf("expected Kabul in body, got %s", w.Body.String())
	}
}

func TestCrossMappingField(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ city(id: 1) { name country { name continent } } }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Afghanistan")) {
		t.Fatalf("expected Afghanistan in body, got %s", w.Body.String())
	}
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ cities { name } }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(10))

	body := bytes.NewBufferString(`{"query":"1234567890"}`)
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestBatchedRequests(t *testing.T) {
	h := newTestHandler(t)

	body := `[{"query":"{ city(id: 1) { name } }"},{"query":"{ city(id: 3) { name } }"}]`
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Amsterdam")) {
		t.Fatalf("expected Amsterdam in batched body, got %s", w.Body.String())
	}
}
