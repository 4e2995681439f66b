package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/query"
)

// FetchIssues runs an issue list query and returns it as a cache entry.
//
// QueryCount comes from the X-Hits header and falls back to the page size
// when the header is missing or malformed. QueryMaxCount comes from
// X-Max-Hits and PageLinks is the raw Link header.
func (c *Client) FetchIssues(ctx context.Context, org string, q query.Query) (issuecache.Entry, error) {
	if org == "" {
		return issuecache.Entry{}, ErrMissingOrg
	}

	var groups []issuecache.Group
	header, err := c.get(ctx, q.Values(), &groups, "organizations", org, "issues/")
	if err != nil {
		return issuecache.Entry{}, err
	}
	if groups == nil {
		groups = []issuecache.Group{}
	}

	entry := issuecache.Entry{
		Groups:        groups,
		QueryCount:    len(groups),
		QueryMaxCount: headerInt(header, "X-Max-Hits"),
		PageLinks:     header.Get("Link"),
	}
	if hits, ok := lookupHeaderInt(header, "X-Hits"); ok {
		entry.QueryCount = hits
	}
	return entry, nil
}

func headerInt(h http.Header, name string) int {
	n, _ := lookupHeaderInt(h, name)
	return n
}

func lookupHeaderInt(h http.Header, name string) (int, bool) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
