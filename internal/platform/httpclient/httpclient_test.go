package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo_RetriesTemporaryStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second, WithRetries(2, time.Millisecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.PostJSON(context.Background(), "/send", map[string]string{"a": "b"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if !out.OK || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected success on second call, calls=%d", calls)
	}
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, time.Second, WithRetries(3, time.Millisecond))
	err := c.Do(context.Background(), http.MethodGet, "x", nil, nil)

	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestResolve(t *testing.T) {
	c, _ := New("", 0)
	if _, err := c.resolve("/relative"); err == nil {
		t.Fatalf("expected error without base url")
	}
	if got, _ := c.resolve("https://example.com/a"); got != "https://example.com/a" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := New("::not a url", 0); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}
