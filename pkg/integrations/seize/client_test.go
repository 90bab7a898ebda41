package seize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/idplease/pkg/cache"
	"github.com/matzehuels/idplease/pkg/integrations"
)

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL(server.URL),
		WithHTTPOptions(integrations.WithHTTPClient(server.Client()), integrations.WithRetry(1, 0)),
	}, opts...)
	return NewClient(cache.NewNullCache(), time.Minute, opts...)
}

func logEntries(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"id":                    i,
			"type":                  "PROFILE_REP_RATING_EDIT",
			"target_profile_handle": "alice",
			"contents": map[string]any{
				"rating_category": "Line 3 Artist",
				"new_rating":      1,
			},
			"created_at": "2024-03-05T10:00:00.000Z",
		}
	}
	return out
}

func TestFetchAllLogsPagination(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		if q.Get("page_size") != strconv.Itoa(LogPageSize) {
			t.Errorf("page_size = %q", q.Get("page_size"))
		}
		if q.Get("rating_matter") != "REP" || q.Get("include_incoming") != "true" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		page, _ := strconv.Atoi(q.Get("page"))
		n := 100
		if page == 3 {
			n = 50
		}
		json.NewEncoder(w).Encode(map[string]any{"page": page, "data": logEntries(n)})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	logs, err := client.FetchAllLogs(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("FetchAllLogs() error: %v", err)
	}
	if len(logs) != 250 {
		t.Errorf("len(logs) = %d, want 250", len(logs))
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
	if logs[0].Contents.NewRating != 1 || logs[0].Contents.RatingCategory != "Line 3 Artist" {
		t.Errorf("unexpected first entry: %+v", logs[0])
	}
}

func TestFetchAllLogsPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": logEntries(100)})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	logs, err := client.FetchAllLogs(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("FetchAllLogs() error: %v", err)
	}
	if len(logs) != 100 {
		t.Errorf("len(logs) = %d, want 100 from the first page", len(logs))
	}
}

func TestFetchAllLogsToleratesBadTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := logEntries(10)
		entries[4]["created_at"] = "last tuesday"
		entries[7]["created_at"] = "2024-03-05T10:00:00"
		json.NewEncoder(w).Encode(map[string]any{"data": entries})
	}))
	defer server.Close()

	logs, err := newTestClient(t, server).FetchAllLogs(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("FetchAllLogs() error: %v", err)
	}
	if len(logs) != 10 {
		t.Fatalf("len(logs) = %d, want 10", len(logs))
	}
	if !logs[4].CreatedAt.IsZero() || logs[4].CreatedAt.Unparsed != "last tuesday" {
		t.Errorf("logs[4].CreatedAt = %+v, want zero time with raw value kept", logs[4].CreatedAt)
	}
	if want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC); !logs[7].CreatedAt.Equal(want) {
		t.Errorf("logs[7].CreatedAt = %v, want %v", logs[7].CreatedAt.Time, want)
	}
	if logs[4].Contents.NewRating != 1 {
		t.Errorf("logs[4] rating = %d, want 1", logs[4].Contents.NewRating)
	}
}

func TestFetchAllLogsPageCap(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"data": logEntries(100)})
	}))
	defer server.Close()

	client := newTestClient(t, server, WithMaxPages(4))
	logs, _ := client.FetchAllLogs(context.Background(), "alice", false)
	if len(logs) != 400 {
		t.Errorf("len(logs) = %d, want 400", len(logs))
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("requests = %d, want 4", got)
	}
}

func TestFetchAllLogsCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": logEntries(100)})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, server)
	if _, err := client.FetchAllLogs(ctx, "alice", false); err == nil {
		t.Error("FetchAllLogs() on canceled context should fail")
	}
}

func TestFetchIdentity(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantWallet string
	}{
		{
			name:       "with wallet",
			body:       `{"handle":"Alice","primary_wallet":"0xabc0000000000000000000000000000001234567","pfp":"ipfs://cid/1.png","pfp_token_id":42}`,
			wantWallet: "0xabc0000000000000000000000000000001234567",
		},
		{
			name: "without wallet",
			body: `{"handle":"Alice","pfp":"https://example.com/a.png"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/identities/alice" {
					t.Errorf("path = %q", r.URL.Path)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			id, err := newTestClient(t, server).FetchIdentity(context.Background(), "alice", false)
			if err != nil {
				t.Fatalf("FetchIdentity() error: %v", err)
			}
			if id.PrimaryWallet != tt.wantWallet {
				t.Errorf("PrimaryWallet = %q, want %q", id.PrimaryWallet, tt.wantWallet)
			}
			if id.Handle != "Alice" {
				t.Errorf("Handle = %q, want Alice", id.Handle)
			}
		})
	}
}

func TestFetchIdentityTokenIDString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"handle":"bob","pfp_token_id":"7"}`)
	}))
	defer server.Close()

	id, err := newTestClient(t, server).FetchIdentity(context.Background(), "bob", false)
	if err != nil {
		t.Fatalf("FetchIdentity() error: %v", err)
	}
	if id.PFPTokenID != "7" {
		t.Errorf("PFPTokenID = %q, want 7", id.PFPTokenID)
	}
}

func TestFetchIdentityNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadRequest} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			_, err := newTestClient(t, server).FetchIdentity(context.Background(), "ghost", false)
			if err == nil {
				t.Fatal("FetchIdentity() should fail")
			}
			if !IsNotFound(err) {
				t.Errorf("IsNotFound(%v) = false", err)
			}
		})
	}

	t.Run("transport error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		client := newTestClient(t, server)
		server.Close()

		_, err := client.FetchIdentity(context.Background(), "ghost", false)
		if err == nil {
			t.Fatal("FetchIdentity() should fail")
		}
		if !IsNotFound(err) {
			t.Errorf("IsNotFound(%v) = false", err)
		}
	})
}

func TestFetchProfileCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("log_type"); got != "PROFILE_CREATED" {
			t.Errorf("log_type = %q", got)
		}
		fmt.Fprint(w, `{"data":[
			{"type":"PROFILE_CREATED","created_at":"2024-03-05T10:00:00.000Z"},
			{"type":"PROFILE_CREATED","created_at":1700000000000}
		]}`)
	}))
	defer server.Close()

	created, err := newTestClient(t, server).FetchProfileCreated(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("FetchProfileCreated() error: %v", err)
	}
	want := time.UnixMilli(1700000000000).UTC()
	if !created.Equal(want) {
		t.Errorf("created = %v, want %v", created, want)
	}
}

func TestFetchProfileCreatedEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FetchProfileCreated(context.Background(), "alice", false)
	if !IsNotFound(err) {
		t.Errorf("FetchProfileCreated() error = %v, want not found", err)
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in   string
		want FlexInt
	}{
		{`5`, 5},
		{`-3`, -3},
		{`"12"`, 12},
		{`null`, 0},
		{`""`, 0},
		{`2.0`, 2},
	}
	for _, tt := range tests {
		var got FlexInt
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-03-05T10:00:00Z"`, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{`"2024-03-05"`, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{`1709632800`, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{`1709632800000`, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{`"2024-03-05T10:00:00"`, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
	}
	for _, tt := range tests {
		var got Timestamp
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got.Time, tt.want)
		}
	}

	for _, in := range []string{`"yesterday"`, `true`} {
		var bad Timestamp
		if err := json.Unmarshal([]byte(in), &bad); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", in, err)
		}
		if !bad.IsZero() || bad.Unparsed == "" {
			t.Errorf("Unmarshal(%s) = %+v, want zero time with raw value", in, bad)
		}
	}
}
