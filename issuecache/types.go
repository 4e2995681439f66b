package issuecache

import (
	"slices"
	"time"
)

// Group is a single issue as shown in an issue list.
type Group struct {
	ID        string    `json:"id"`
	ShortID   string    `json:"shortId"`
	Title     string    `json:"title"`
	Culprit   string    `json:"culprit"`
	Level     string    `json:"level"`
	Status    string    `json:"status"`
	Count     string    `json:"count"`
	UserCount int       `json:"userCount"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
	Project   Project   `json:"project"`
}

// Project identifies the project an issue belongs to.
type Project struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// Entry is the stored result of one issue list query.
type Entry struct {
	// Groups is the ordered page of issues, in display order.
	Groups []Group `json:"groups"`

	// QueryCount is the total number of matching issues at fetch time.
	// It may exceed len(Groups).
	QueryCount int `json:"queryCount"`

	// QueryMaxCount is the ceiling used when counting was capped.
	// Zero means QueryCount is exact.
	QueryMaxCount int `json:"queryMaxCount,omitempty"`

	// PageLinks is the raw pagination Link header. Empty means there are no
	// further pages or the server did not say.
	PageLinks string `json:"pageLinks,omitempty"`
}

// Capped reports whether QueryCount hit the counting ceiling.
func (e Entry) Capped() bool {
	return e.QueryMaxCount > 0 && e.QueryCount >= e.QueryMaxCount
}

func (e Entry) clone() Entry {
	e.Groups = slices.Clone(e.Groups)
	return e
}
