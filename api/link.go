package api

import "strings"

// Link is one entry of a pagination Link header.
type Link struct {
	URL     string
	Rel     string
	Cursor  string
	Results bool
}

// ParseLinks parses a Link header of the form
//
//	<https://host/...>; rel="next"; results="true"; cursor="0:100:0"
//
// Malformed entries are skipped.
func ParseLinks(header string) []Link {
	var links []Link
	for part := range strings.SplitSeq(header, ",") {
		segments := strings.Split(part, ";")
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}

		link := Link{URL: target[1 : len(target)-1]}
		for _, attr := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(attr), "=")
			if !ok {
				continue
			}
			value = strings.Trim(value, `"`)
			switch strings.ToLower(key) {
			case "rel":
				link.Rel = value
			case "cursor":
				link.Cursor = value
			case "results":
				link.Results = value == "true"
			}
		}
		links = append(links, link)
	}
	return links
}

// NextCursor returns the cursor of the next page, or "" when the header
// reports no further results.
func NextCursor(header string) string {
	for _, l := range ParseLinks(header) {
		if l.Rel == "next" && l.Results {
			return l.Cursor
		}
	}
	return ""
}
