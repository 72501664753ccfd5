package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchBytes_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected a User-Agent header")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("payload"))
	}))
	defer ts.Close()

	f := NewHTTPFetcher(5 * time.Second)
	body, status, err := f.FetchBytes(context.Background(), ts.URL)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if string(body) != "payload" {
		t.Errorf("Expected body 'payload', got '%s'", body)
	}
}

func TestFetchBytes_NonSuccessStatusReturned(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer ts.Close()

	f := NewHTTPFetcher(5 * time.Second)
	body, status, err := f.FetchBytes(context.Background(), ts.URL)

	// Non-2xx is not an error at this layer; callers classify the status
	if err != nil {
		t.Fatalf("Expected no error for non-2xx, got %v", err)
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", status)
	}
	if string(body) != "slow down" {
		t.Errorf("Expected body passed through, got '%s'", body)
	}
}

func TestFetchBytes_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(5 * time.Second)
	if _, _, err := f.FetchBytes(ctx, ts.URL); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestFetchBytes_BodyCapped(t *testing.T) {
	oversized := make([]byte, MaxBodyBytes+1024)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(oversized)
	}))
	defer ts.Close()

	f := NewHTTPFetcher(10 * time.Second)
	body, _, err := f.FetchBytes(context.Background(), ts.URL)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(body) != MaxBodyBytes {
		t.Errorf("Expected body capped at %d bytes, got %d", MaxBodyBytes, len(body))
	}
}

func TestFetchBytes_InvalidURL(t *testing.T) {
	f := NewHTTPFetcher(time.Second)
	if _, _, err := f.FetchBytes(context.Background(), "://not-a-url"); err == nil {
		t.Error("Expected error for malformed URL")
	}
}
