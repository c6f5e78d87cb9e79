package forecast

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdviseParsesForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("market"); got != "BTC-USD" {
			t.Errorf("market query = %q", got)
		}
		fmt.Fprint(w, `{"market":"BTC-USD","projected_price":61250.5,"confidence":0.73}`)
	}))
	defer srv.Close()

	f, err := NewClient(srv.URL).Advise(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if f.ProjectedPrice != 61250.5 || f.Confidence != 0.73 {
		t.Errorf("forecast mismatch: %+v", f)
	}
}

func TestAdviseRejectsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"projected_price":-5,"confidence":2}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Advise(context.Background(), "BTC-USD"); err == nil {
		t.Error("implausible payload should be rejected")
	}
}

func TestAdviseSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Advise(context.Background(), "BTC-USD"); err == nil {
		t.Error("HTTP 502 should be an error the caller ignores gracefully")
	}
}
