package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/query"
	"github.com/jonwraymond/liststore/resilience"
	"github.com/jonwraymond/liststore/tags"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/api/0/", opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative/only"} {
		if _, err := New(raw); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("New(%q) error = %v, want ErrInvalidBaseURL", raw, err)
		}
	}
}

func TestFetchOrganizationTags(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"key":"browser","name":"Browser","totalValues":12},{"key":"os","name":"OS"}]`))
	}, WithTokenSource(StaticToken("secret-token")))

	got, err := client.FetchOrganizationTags(context.Background(), "acme", Selection{
		Projects:    []string{"1", "2"},
		StatsPeriod: "14d",
	})
	if err != nil {
		t.Fatalf("FetchOrganizationTags() error = %v", err)
	}

	want := []tags.Tag{
		{Key: "browser", Name: "Browser", TotalValues: 12},
		{Key: "os", Name: "OS"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if gotPath != "/api/0/organizations/acme/tags/" {
		t.Errorf("path = %q", gotPath)
	}
	wantQuery := map[string][]string{
		"use_cache":   {"1"},
		"project":     {"1", "2"},
		"statsPeriod": {"14d"},
	}
	if diff := cmp.Diff(wantQuery, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestFetchOrganizationTags_NullBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	got, err := client.FetchOrganizationTags(context.Background(), "acme", Selection{})
	if err != nil {
		t.Fatalf("FetchOrganizationTags() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestFetchOrganizationTags_AbsoluteRange(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	})

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.FetchOrganizationTags(context.Background(), "acme", Selection{
		Start:        start,
		End:          start.Add(24 * time.Hour),
		Environments: []string{"prod"},
	})
	if err != nil {
		t.Fatalf("FetchOrganizationTags() error = %v", err)
	}

	wantQuery := map[string][]string{
		"use_cache":   {"1"},
		"environment": {"prod"},
		"start":       {"2026-03-01T00:00:00"},
		"end":         {"2026-03-02T00:00:00"},
	}
	if diff := cmp.Diff(wantQuery, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchOrganizationTags_MissingOrg(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.FetchOrganizationTags(context.Background(), "", Selection{}); !errors.Is(err, ErrMissingOrg) {
		t.Errorf("error = %v, want ErrMissingOrg", err)
	}
}

func TestFetchTagValues(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[{"value":"Chrome","name":"Chrome","count":7,"firstSeen":"2026-01-01T00:00:00Z","lastSeen":"2026-01-02T00:00:00Z"}]`))
	})

	got, err := client.FetchTagValues(context.Background(), "acme", TagValuesRequest{
		Key:                 "browser",
		Search:              "Chr",
		Selection:           Selection{Projects: []string{"1"}},
		IncludeTransactions: true,
		Sort:                "-count",
	})
	if err != nil {
		t.Fatalf("FetchTagValues() error = %v", err)
	}

	want := []tags.TagValue{{
		Value:     "Chrome",
		Name:      "Chrome",
		Count:     7,
		FirstSeen: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LastSeen:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if gotPath != "/api/0/organizations/acme/tags/browser/values/" {
		t.Errorf("path = %q", gotPath)
	}
	wantQuery := map[string][]string{
		"query":               {"Chr"},
		"project":             {"1"},
		"includeTransactions": {"1"},
		"sort":                {"-count"},
	}
	if diff := cmp.Diff(wantQuery, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchTagValues_MissingKey(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	if _, err := client.FetchTagValues(context.Background(), "acme", TagValuesRequest{}); !errors.Is(err, ErrMissingTagKey) {
		t.Errorf("error = %v, want ErrMissingTagKey", err)
	}
}

func TestFetchIssues(t *testing.T) {
	var gotQuery map[string][]string
	link := `<https://host/api/0/organizations/acme/issues/?cursor=0:0:1>; rel="previous"; results="false"; cursor="0:0:1", ` +
		`<https://host/api/0/organizations/acme/issues/?cursor=0:25:0>; rel="next"; results="true"; cursor="0:25:0"`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("X-Hits", "1000")
		w.Header().Set("X-Max-Hits", "1000")
		w.Header().Set("Link", link)
		_, _ = w.Write([]byte(`[{"id":"1","title":"TypeError","project":{"id":"2","slug":"web"}}]`))
	})

	q := query.Query{"query": "is:unresolved", "project": []string{"2"}}
	got, err := client.FetchIssues(context.Background(), "acme", q)
	if err != nil {
		t.Fatalf("FetchIssues() error = %v", err)
	}

	want := issuecache.Entry{
		Groups:        []issuecache.Group{{ID: "1", Title: "TypeError", Project: issuecache.Project{ID: "2", Slug: "web"}}},
		QueryCount:    1000,
		QueryMaxCount: 1000,
		PageLinks:     link,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
	if !got.Capped() {
		t.Error("Capped() = false, want true")
	}
	if diff := cmp.Diff(map[string][]string{"query": {"is:unresolved"}, "project": {"2"}}, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	if NextCursor(got.PageLinks) != "0:25:0" {
		t.Errorf("NextCursor() = %q", NextCursor(got.PageLinks))
	}
}

func TestFetchIssues_MissingHitsFallsBackToPageSize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Hits", "lots")
		_, _ = w.Write([]byte(`[{"id":"1"},{"id":"2"}]`))
	})

	got, err := client.FetchIssues(context.Background(), "acme", query.Query{})
	if err != nil {
		t.Fatalf("FetchIssues() error = %v", err)
	}
	if got.QueryCount != 2 || got.QueryMaxCount != 0 {
		t.Errorf("QueryCount = %d, QueryMaxCount = %d; want 2, 0", got.QueryCount, got.QueryMaxCount)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
		detail    string
	}{
		{"not found", http.StatusNotFound, `{"detail":"The requested resource does not exist"}`, false, "The requested resource does not exist"},
		{"rate limited", http.StatusTooManyRequests, ``, true, ""},
		{"server error", http.StatusBadGateway, "upstream down\n", true, "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchIssues(context.Background(), "acme", query.Query{})
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Detail != tt.detail {
				t.Errorf("StatusError = %+v", statusErr)
			}
			if got := resilience.Retryable(err); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestClient_DecodeErrorIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := client.FetchIssues(context.Background(), "acme", query.Query{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", err)
	}
	if resilience.Retryable(err) {
		t.Error("decode errors should not be retried")
	}
}

func TestClient_CanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchIssues(ctx, "acme", query.Query{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if resilience.Retryable(err) {
		t.Error("canceled requests should not be retried")
	}
}
