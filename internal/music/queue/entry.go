package queue

import "time"

// Resolved is the set of playable fields produced by a lookup: a direct audio
// locator, a display title and the track length.
type Resolved struct {
	URL      string
	Title    string
	Duration time.Duration
}

// Entry is one item in a guild's queue.
//
// An entry is either fully pending (URL, Title and Duration all zero, only the
// search key known) or fully resolved; there is no partial state. Pending
// entries are mutated exactly once, in place, by the resolver loop. A failed
// lookup still produces a resolved entry carrying a synthetic "[Failed: ...]"
// title so nothing retries it and display logic sees a uniform shape.
type Entry struct {
	URL         string        // direct audio locator; empty while pending
	Title       string        // empty while pending
	Duration    time.Duration // zero while pending
	Requester   string        // display name of who asked for it
	RequesterID string
	SearchKey   string // the original query or URL; always present

	pending bool
}

// NewResolvedEntry builds an entry whose playable fields are already known.
func NewResolvedEntry(res Resolved, requesterID, requester, searchKey string) *Entry {
	if searchKey == "" {
		searchKey = res.URL
	}
	return &Entry{
		URL:         res.URL,
		Title:       res.Title,
		Duration:    res.Duration,
		Requester:   requester,
		RequesterID: requesterID,
		SearchKey:   searchKey,
	}
}

// NewPendingEntry builds an entry that only carries its search key.
// The resolver loop fills in the rest later.
func NewPendingEntry(searchKey, requesterID, requester string) *Entry {
	return &Entry{
		Requester:   requester,
		RequesterID: requesterID,
		SearchKey:   searchKey,
		pending:     true,
	}
}

// Pending reports whether the entry still awaits resolution.
func (e *Entry) Pending() bool {
	return e.pending
}

// DisplayTitle returns the best human-readable label for the entry:
// title, falling back to the search key, falling back to the locator.
func (e *Entry) DisplayTitle() string {
	switch {
	case e.Title != "":
		return e.Title
	case e.SearchKey != "":
		return e.SearchKey
	case e.URL != "":
		return e.URL
	}
	return "(resolving...)"
}
