package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	if err := w.WriteJSON("message", map[string]string{"role": "assistant"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := w.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := "event: message\ndata: {\"role\":\"assistant\"}\n\n: ping\n\ndata: [DONE]\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if !rec.Flushed {
		t.Error("expected writer to flush")
	}
}

func TestNewHTTPClientTimeout(t *testing.T) {
	c := NewHTTPClient(5 * time.Second)
	if c.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type = %T", c.Transport)
	}
	if tr.MaxIdleConnsPerHost != 10 {
		t.Errorf("max idle per host = %d", tr.MaxIdleConnsPerHost)
	}
}
