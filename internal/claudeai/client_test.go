package claudeai

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testKey = "sk-ant-sid01-test"

func newTestServer(t *testing.T, routes map[string]func(http.ResponseWriter, *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "   ", "not-a-session-key"} {
		if c := NewClient(key); c != nil {
			t.Errorf("NewClient(%q) = %v, want nil", key, c)
		}
	}
	if c := NewClient("  " + testKey + "\n"); c == nil {
		t.Fatal("NewClient with padded valid key returned nil")
	}
}

func TestFetchAll(t *testing.T) {
	var gotCookie string
	srv := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/organizations": func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			_, _ = w.Write([]byte(`[{"uuid":"org-1","name":"Personal"}]`))
		},
		"/organizations/org-1/usage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"five_hour": {"utilization": 42, "resets_at": "2025-06-04T14:00:00Z"},
				"seven_day": {"utilization": "63%", "resets_at": "2025-06-09T03:00:00Z"},
				"seven_day_sonnet": {"utilization": 0.25, "resets_at": null}
			}`))
		},
		"/organizations/org-1/overage_spend_limit": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	})

	fixed := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	c := NewClient(testKey, WithBaseURL(srv.URL+"/"), WithClock(func() time.Time { return fixed }))
	data := c.FetchAll(context.Background())

	if gotCookie != "sessionKey="+testKey {
		t.Errorf("Cookie = %q", gotCookie)
	}
	if data.Org.UUID != "org-1" {
		t.Errorf("Org.UUID = %q, want org-1", data.Org.UUID)
	}
	if !data.FetchedAt.Equal(fixed) {
		t.Errorf("FetchedAt = %v, want %v", data.FetchedAt, fixed)
	}
	if data.Usage == nil {
		t.Fatal("Usage is nil")
	}
	if got := data.Usage.FiveHour.Percent(); got != 42 {
		t.Errorf("FiveHour.Percent() = %d, want 42", got)
	}
	if got := data.Usage.SevenDay.Percent(); got != 63 {
		t.Errorf("SevenDay.Percent() = %d, want 63", got)
	}
	if got := data.Usage.SevenDaySonnet.Percent(); got != 25 {
		t.Errorf("SevenDaySonnet.Percent() = %d, want 25", got)
	}
	if !data.Usage.SevenDaySonnet.ResetsAt.IsZero() {
		t.Errorf("SevenDaySonnet.ResetsAt = %v, want zero", data.Usage.SevenDaySonnet.ResetsAt)
	}
	if data.Usage.SevenDayOpus != nil {
		t.Errorf("SevenDayOpus = %+v, want nil", data.Usage.SevenDayOpus)
	}
	if got := data.Usage.FiveHour.Remaining(fixed); got != 5*time.Hour {
		t.Errorf("FiveHour.Remaining = %v, want 5h", got)
	}
	// Overage failed but usage survived.
	if data.Overage != nil {
		t.Errorf("Overage = %+v, want nil", data.Overage)
	}
	if data.Error == nil {
		t.Error("expected overage error to surface")
	}
}

func TestFetchAllUnauthorized(t *testing.T) {
	srv := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/organizations": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		},
	})

	data := NewClient(testKey, WithBaseURL(srv.URL)).FetchAll(context.Background())
	if !errors.Is(data.Error, ErrUnauthorized) {
		t.Fatalf("Error = %v, want ErrUnauthorized", data.Error)
	}
	if data.Usage != nil {
		t.Error("Usage should be nil when organizations fail")
	}
}

func TestFetchAllNoOrganizations(t *testing.T) {
	srv := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/organizations": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		},
	})

	data := NewClient(testKey, WithBaseURL(srv.URL)).FetchAll(context.Background())
	if !errors.Is(data.Error, ErrNoOrganizations) {
		t.Fatalf("Error = %v, want ErrNoOrganizations", data.Error)
	}
}

func TestFetchUsageRateLimited(t *testing.T) {
	srv := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/organizations/o/usage": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})

	_, err := NewClient(testKey, WithBaseURL(srv.URL)).FetchUsage(context.Background(), "o")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestParseUtilization(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`75`, 0.75, true},
		{`75.5`, 0.755, true},
		{`0.4`, 0.4, true},
		{`1`, 1, true},
		{`"80%"`, 0.8, true},
		{`" 0.3 "`, 0.3, true},
		{`"lots"`, 0, false},
		{`null`, 0, true},
		{``, 0, false},
	}

	for _, tt := range tests {
		got, ok := parseUtilization(json.RawMessage(tt.raw))
		if ok != tt.wantOK {
			t.Errorf("parseUtilization(%s) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseUtilization(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFetchOverageStatusError(t *testing.T) {
	srv := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/organizations/o/overage_spend_limit": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	})

	_, err := NewClient(testKey, WithBaseURL(srv.URL)).FetchOverageLimit(context.Background(), "o")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Errorf("Code = %d, want %d", se.Code, http.StatusBadGateway)
	}
}
