package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/liststore/alert"
	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/resilience"
)

// BreakerCheck reports the fetch circuit breaker. An open breaker means
// every fetch is being rejected.
func BreakerCheck(b *resilience.Breaker) Checker {
	return NewCheckerFunc("breaker", func(context.Context) Result {
		state := b.State()
		details := map[string]any{"state": state.String()}
		switch state {
		case resilience.BreakerOpen:
			return Unhealthy("fetches rejected", resilience.ErrCircuitOpen).WithDetails(details)
		case resilience.BreakerHalfOpen:
			return Degraded("probing after failures").WithDetails(details)
		default:
			return Healthy("accepting fetches").WithDetails(details)
		}
	})
}

// AlertsCheck reports open alerts. Error alerts make it unhealthy and
// warnings, such as tag truncation, make it degraded.
func AlertsCheck(s *alert.Store) Checker {
	return NewCheckerFunc("alerts", func(context.Context) Result {
		counts := map[alert.Level]int{}
		var firstError, firstWarning string
		for _, a := range s.Alerts() {
			counts[a.Level]++
			switch {
			case a.Level == alert.LevelError && firstError == "":
				firstError = a.Message
			case a.Level == alert.LevelWarning && firstWarning == "":
				firstWarning = a.Message
			}
		}

		details := map[string]any{
			"errors":   counts[alert.LevelError],
			"warnings": counts[alert.LevelWarning],
		}
		switch {
		case firstError != "":
			return Unhealthy(firstError, nil).WithDetails(details)
		case firstWarning != "":
			return Degraded(firstWarning).WithDetails(details)
		default:
			return Healthy("no open alerts").WithDetails(details)
		}
	})
}

// CacheCheck reports the size of the issue list cache. It is always
// healthy; its details feed status output.
func CacheCheck(c *issuecache.Store) Checker {
	return NewCheckerFunc("issuecache", func(context.Context) Result {
		st := c.State()
		return Healthy(fmt.Sprintf("%d cached queries", st.Len())).WithDetails(map[string]any{
			"entries":    st.Len(),
			"generation": st.Generation(),
		})
	})
}

// PingCheck reports unhealthy when ping fails.
func PingCheck(name string, ping func(context.Context) error) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			return Unhealthy("unreachable", err)
		}
		return Healthy("reachable")
	})
}
