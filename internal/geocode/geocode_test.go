package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestReverse_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"city", `{"address":{"city":"Barcelona","state":"Catalonia"},"display_name":"x"}`, "Barcelona"},
		{"town", `{"address":{"town":"Sitges","county":"Garraf"}}`, "Sitges"},
		{"village", `{"address":{"village":"Cadaqués"}}`, "Cadaqués"},
		{"hamlet", `{"address":{"hamlet":"Hameau","country":"France"}}`, "Hameau"},
		{"county", `{"address":{"county":"Garraf","state":"Catalonia"}}`, "Garraf"},
		{"state", `{"address":{"state":"Catalonia","country":"Spain"}}`, "Catalonia"},
		{"country", `{"address":{"country":"Spain"}}`, "Spain"},
		{"display name", `{"display_name":"Atlantic Ocean"}`, "Atlantic Ocean"},
		{"nothing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/reverse" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.URL.Query().Get("format") != "json" {
					t.Error("format=json missing")
				}
				if r.Header.Get("User-Agent") == "" {
					t.Error("missing User-Agent")
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(WithBaseURL(server.URL), WithRate(0, 0))
			got, err := c.Reverse(context.Background(), 41.35, 2.11)
			if err != nil {
				t.Fatalf("Reverse error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Reverse = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReverse_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "-13.5319" || q.Get("lon") != "-71.9675" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"address":{"city":"Cusco"}}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRate(0, 0))
	if _, err := c.Reverse(context.Background(), -13.5319, -71.9675); err != nil {
		t.Fatal(err)
	}
}

func TestReverse_NonOKIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRate(0, 0))
	got, err := c.Reverse(context.Background(), 0, 0)
	if err != nil || got != "" {
		t.Errorf("Reverse = %q, %v; want empty, nil", got, err)
	}
}

func TestReverse_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"address":{"city":"Somewhere"}}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRate(0.1, 1))
	if _, err := c.Reverse(context.Background(), 0, 0); err != nil {
		t.Fatalf("first lookup: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Reverse(ctx, 0, 0)
	if err == nil {
		t.Fatal("second lookup should be throttled")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestSubtitle(t *testing.T) {
	moment := time.Date(2024, 6, 12, 21, 5, 0, 0, time.UTC)
	if got := Subtitle(moment, "Cusco"); got != "June 12, 2024, 21:05 – Cusco" {
		t.Errorf("Subtitle = %q", got)
	}
	if got := Subtitle(moment, ""); got != "June 12, 2024, 21:05" {
		t.Errorf("Subtitle without place = %q", got)
	}
}
