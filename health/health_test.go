package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/liststore/alert"
	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/query"
	"github.com/jonwraymond/liststore/resilience"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.results); got != tt.want {
				t.Errorf("Overall() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	agg := NewAggregator(50 * time.Millisecond)
	agg.Register(NewCheckerFunc("ok", func(context.Context) Result { return Healthy("fine") }))
	agg.Register(NewCheckerFunc("slow", func(context.Context) Result {
		<-block
		return Healthy("too late")
	}))

	results := NewAggregator(50 * time.Millisecond).CheckAll(context.Background())
	if len(results) != 0 {
		t.Errorf("empty aggregator returned %d results", len(results))
	}

	results = agg.CheckAll(context.Background())
	if results["ok"].Status != StatusHealthy {
		t.Errorf("ok = %+v", results["ok"])
	}
	if !errors.Is(results["slow"].Error, ErrCheckTimeout) {
		t.Errorf("slow = %+v, want timeout", results["slow"])
	}
	if got := agg.CheckerNames(); len(got) != 2 || got[0] != "ok" || got[1] != "slow" {
		t.Errorf("CheckerNames() = %v", got)
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator(0)
	agg.Register(PingCheck("api", func(context.Context) error { return errors.New("refused") }))

	result, err := agg.Check(context.Background(), "api")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != StatusUnhealthy || result.Error == nil {
		t.Errorf("result = %+v", result)
	}
	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v", err)
	}
}

func TestBreakerCheck(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := resilience.NewBreaker(resilience.BreakerConfig{
		MaxFailures: 1,
		CoolDown:    time.Minute,
		Now:         func() time.Time { return now },
	})
	check := BreakerCheck(b)
	ctx := context.Background()

	if got := check.Check(ctx).Status; got != StatusHealthy {
		t.Errorf("closed: %v", got)
	}

	_ = b.Allow()
	b.Record(errors.New("503"))
	if got := check.Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("open: %v", got)
	}

	now = now.Add(time.Minute)
	if got := check.Check(ctx).Status; got != StatusDegraded {
		t.Errorf("half-open: %v", got)
	}
}

func TestAlertsCheck(t *testing.T) {
	store := alert.New()
	check := AlertsCheck(store)
	ctx := context.Background()

	if got := check.Check(ctx); got.Status != StatusHealthy {
		t.Errorf("no alerts: %+v", got)
	}

	store.Add(ctx, alert.Alert{Message: "truncated", Level: alert.LevelWarning})
	if got := check.Check(ctx); got.Status != StatusDegraded || got.Message != "truncated" {
		t.Errorf("warning: %+v", got)
	}

	store.Add(ctx, alert.Alert{Message: "Unable to load tags", Level: alert.LevelError})
	got := check.Check(ctx)
	if got.Status != StatusUnhealthy || got.Message != "Unable to load tags" {
		t.Errorf("error: %+v", got)
	}
	if got.Details["errors"] != 1 || got.Details["warnings"] != 1 {
		t.Errorf("details = %v", got.Details)
	}
}

func TestCacheCheck(t *testing.T) {
	cache := issuecache.New()
	ctx := context.Background()
	cache.Save(ctx, query.Query{"query": "is:unresolved"}, issuecache.Entry{})

	got := CacheCheck(cache).Check(ctx)
	if got.Status != StatusHealthy || got.Details["entries"] != 1 {
		t.Errorf("result = %+v", got)
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(Unhealthy("unreachable", errors.New("refused")))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["status"] != "unhealthy" || decoded["error"] != "refused" || decoded["message"] != "unreachable" {
		t.Errorf("decoded = %v", decoded)
	}
}
