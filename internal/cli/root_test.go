package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/liststore/alert"
	"github.com/jonwraymond/liststore/loader"
	"github.com/jonwraymond/liststore/tags"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "liststore", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"tags", "tag-values", "issues", "status"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("org"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("pretty"))
}

// setupServer starts a fake API and points the config environment at it.
func setupServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("LISTSTORE_API__BASE_URL", server.URL+"/api/0/")
	t.Setenv("LISTSTORE_API__ORG", "acme")
	t.Setenv("LISTSTORE_API__TOKEN", "test-token")
	t.Setenv("LISTSTORE_OBSERVE__LOGGING__ENABLED", "false")
	t.Setenv("LISTSTORE_RETRY__MAX_ATTEMPTS", "1")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTagsCommand(t *testing.T) {
	var gotAuth, gotPath string
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[{"key":"browser","name":"Browser"},{"key":"os","name":"OS"}]`))
	})

	out, err := execute(t, "tags", "--project", "1")
	require.NoError(t, err)

	var result TagsResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "acme", result.Org)
	assert.Equal(t, 2, result.Count)
	assert.Empty(t, result.Alerts)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/api/0/organizations/acme/tags/", gotPath)
}

func TestTagsCommand_Truncation(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, _ *http.Request) {
		items := make([]string, 1200)
		for i := range items {
			items[i] = fmt.Sprintf(`{"key":"tag-%d"}`, i)
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	})

	out, err := execute(t, "tags")
	require.NoError(t, err)

	var result TagsResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, tags.MaxTags, result.Count)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, tags.TruncatedMessage, result.Alerts[0].Message)
	assert.Equal(t, alert.LevelWarning, result.Alerts[0].Level)
}

func TestTagsCommand_Failure(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	out, err := execute(t, "tags")
	require.Error(t, err)

	var result TagsResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 0, result.Count)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, loader.LoadFailedMessage, result.Alerts[0].Message)
	assert.Equal(t, alert.LevelError, result.Alerts[0].Level)
}

func TestTagsCommand_MissingConfig(t *testing.T) {
	t.Setenv("LISTSTORE_API__BASE_URL", "")
	t.Setenv("LISTSTORE_API__ORG", "")

	_, err := execute(t, "tags")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestIssuesCommand(t *testing.T) {
	var gotQuery map[string][]string
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("X-Hits", "42")
		w.Header().Set("Link", `<https://host/>; rel="next"; results="true"; cursor="0:25:0"`)
		_, _ = w.Write([]byte(`[{"id":"1","title":"TypeError"}]`))
	})

	out, err := execute(t, "issues", "--query", "is:unresolved", "--project", "2", "--limit", "25")
	require.NoError(t, err)

	assert.NotContains(t, out, `"cached"`)

	var result IssuesResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 42, result.Entry.QueryCount)
	assert.Equal(t, "0:25:0", result.NextCursor)
	require.Len(t, result.Entry.Groups, 1)
	assert.Equal(t, "TypeError", result.Entry.Groups[0].Title)
	assert.Equal(t, `{"limit":"25","project":["2"],"query":"is:unresolved","sort":"date"}`, result.Key)
	assert.Equal(t, []string{"2"}, gotQuery["project"])
	assert.Equal(t, []string{"date"}, gotQuery["sort"])
}

func TestTagValuesCommand(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[{"value":"Chrome","name":"Chrome","count":12},{"value":"Firefox","name":"Firefox","count":3}]`))
	})

	out, err := execute(t, "tag-values", "browser", "--search", "fire", "--sort", "-count", "--project", "1", "--include-transactions")
	require.NoError(t, err)

	var values []tags.TagValue
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	require.Len(t, values, 2)
	assert.Equal(t, "Chrome", values[0].Value)
	assert.Equal(t, 12, values[0].Count)
	assert.Equal(t, "/api/0/organizations/acme/tags/browser/values/", gotPath)
	assert.Equal(t, []string{"fire"}, gotQuery["query"])
	assert.Equal(t, []string{"-count"}, gotQuery["sort"])
	assert.Equal(t, []string{"1"}, gotQuery["project"])
	assert.Equal(t, []string{"1"}, gotQuery["includeTransactions"])
}

func TestTagValuesCommand_Failure(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"unknown tag"}`))
	})

	_, err := execute(t, "tag-values", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tag")
}

func TestTagValuesCommand_InvalidSort(t *testing.T) {
	_, err := execute(t, "tag-values", "browser", "--sort", "name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sort")
}

func TestStatusCommand(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	out, err := execute(t, "status")
	require.NoError(t, err)

	var result struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "healthy", result.Status)
	assert.Contains(t, result.Checks, "api")
	assert.Contains(t, result.Checks, "breaker")
	assert.Equal(t, "1 cached queries", result.Checks["issuecache"]["message"])
}

func TestStatusCommand_Unreachable(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	out, err := execute(t, "status")
	require.Error(t, err)
	assert.Contains(t, out, `"status": "unhealthy"`)
}
