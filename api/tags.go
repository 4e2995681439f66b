package api

import (
	"context"
	"net/url"
	"time"

	"github.com/jonwraymond/liststore/tags"
)

// Selection is the page filter applied to tag requests.
type Selection struct {
	Projects     []string
	Environments []string

	// StatsPeriod is a relative range such as "14d". It wins over Start
	// and End when set.
	StatsPeriod string
	Start       time.Time
	End         time.Time
}

const dateLayout = "2006-01-02T15:04:05"

func (s Selection) apply(v url.Values) {
	for _, p := range s.Projects {
		v.Add("project", p)
	}
	for _, e := range s.Environments {
		v.Add("environment", e)
	}
	switch {
	case s.StatsPeriod != "":
		v.Set("statsPeriod", s.StatsPeriod)
	case !s.Start.IsZero() && !s.End.IsZero():
		v.Set("start", s.Start.UTC().Format(dateLayout))
		v.Set("end", s.End.UTC().Format(dateLayout))
	}
}

// FetchOrganizationTags returns the tag keys of an organization, limited to
// the selected projects when any are given. A null body yields an empty
// list.
func (c *Client) FetchOrganizationTags(ctx context.Context, org string, sel Selection) ([]tags.Tag, error) {
	if org == "" {
		return nil, ErrMissingOrg
	}

	params := url.Values{}
	params.Set("use_cache", "1")
	sel.apply(params)

	var out []tags.Tag
	if _, err := c.get(ctx, params, &out, "organizations", org, "tags/"); err != nil {
		return nil, err
	}
	if out == nil {
		out = []tags.Tag{}
	}
	return out, nil
}

// TagValuesRequest selects the values of one tag key.
type TagValuesRequest struct {
	Key       string
	Search    string
	Selection Selection

	IncludeTransactions bool
	IncludeSessions     bool
	IncludeReplays      bool

	// Sort is "-last_seen" or "-count".
	Sort    string
	Dataset string
}

func (r TagValuesRequest) values() url.Values {
	v := url.Values{}
	if r.Search != "" {
		v.Set("query", r.Search)
	}
	r.Selection.apply(v)
	if r.IncludeTransactions {
		v.Set("includeTransactions", "1")
	}
	if r.IncludeSessions {
		v.Set("includeSessions", "1")
	}
	if r.IncludeReplays {
		v.Set("includeReplays", "1")
	}
	if r.Sort != "" {
		v.Set("sort", r.Sort)
	}
	if r.Dataset != "" {
		v.Set("dataset", r.Dataset)
	}
	return v
}

// FetchTagValues returns the observed values of one tag key.
func (c *Client) FetchTagValues(ctx context.Context, org string, req TagValuesRequest) ([]tags.TagValue, error) {
	if org == "" {
		return nil, ErrMissingOrg
	}
	if req.Key == "" {
		return nil, ErrMissingTagKey
	}

	var out []tags.TagValue
	if _, err := c.get(ctx, req.values(), &out, "organizations", org, "tags", req.Key, "values/"); err != nil {
		return nil, err
	}
	if out == nil {
		out = []tags.TagValue{}
	}
	return out, nil
}
