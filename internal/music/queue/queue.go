// Package queue holds the per-guild playback queue: an ordered sequence of
// entries, pending ones interleaved with resolved ones, plus a singleton
// "now playing" slot.
package queue

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Queue is one guild's ordered track sequence. All mutation goes through the
// queue's own mutex so the resolver loop and the playback driver never
// interleave sub-operations on the same guild. Snapshots share entry pointers
// with the live queue; pending entries mutate in place, and readers must
// tolerate an entry changing between read and use.
type Queue struct {
	mu         sync.Mutex
	entries    []*Entry
	nowPlaying *Entry
}

func New() *Queue {
	return &Queue{entries: make([]*Entry, 0)}
}

// Append adds an entry to the tail. There is no size bound; bulk importers
// are expected to bound how much they submit.
func (q *Queue) Append(entries ...*Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entries...)
}

// DequeueNext pops the head entry and makes it the now-playing track.
// An empty queue returns nil and clears the now-playing slot.
func (q *Queue) DequeueNext() *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		q.nowPlaying = nil
		return nil
	}

	next := q.entries[0]
	q.entries = q.entries[1:]
	q.nowPlaying = next
	return next
}

// Peek returns the head entry without removing it, or nil if empty.
func (q *Queue) Peek() *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// NowPlaying returns the entry in the now-playing slot, or nil.
func (q *Queue) NowPlaying() *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nowPlaying
}

// SetNowPlaying places an entry directly into the now-playing slot, bypassing
// the queue. Used for direct single-track requests and for repeat.
func (q *Queue) SetNowPlaying(e *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nowPlaying = e
}

// ClearNowPlaying empties the now-playing slot.
func (q *Queue) ClearNowPlaying() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nowPlaying = nil
}

// Snapshot returns the entries in order. The slice is a copy; the entries are
// the live ones.
func (q *Queue) Snapshot() []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of queued entries, excluding now playing.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// IsEmpty reports whether no entries are queued.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Find locates the first entry whose title, locator or search key contains
// text (case-insensitive). It returns the entry, its 1-based position and the
// ETA: the summed duration of every entry strictly before it. Pending entries
// contribute zero to the ETA.
func (q *Queue) Find(text string) (entry *Entry, position int, eta time.Duration, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	needle := strings.ToLower(text)
	for i, e := range q.entries {
		if matches(e, needle) {
			return e, i + 1, eta, true
		}
		eta += e.Duration
	}
	return nil, 0, 0, false
}

func matches(e *Entry, needle string) bool {
	if e.Title != "" && strings.Contains(strings.ToLower(e.Title), needle) {
		return true
	}
	if e.URL != "" && strings.Contains(strings.ToLower(e.URL), needle) {
		return true
	}
	return e.SearchKey != "" && strings.Contains(strings.ToLower(e.SearchKey), needle)
}

// FirstPending returns the index and search key of the first entry that still
// awaits resolution. The resolver loop always works front to back, so
// resolution order follows queue order.
func (q *Queue) FirstPending() (index int, searchKey string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.pending {
			return i, e.SearchKey, true
		}
	}
	return 0, "", false
}

// ResolveAt transitions the pending entry at index to resolved, in place.
// The queue may have shifted while the lookup ran, so the entry is verified by
// search key; if it moved, the first still-pending entry with that key is
// resolved instead. Returns false if no such entry remains.
func (q *Queue) ResolveAt(index int, searchKey string, res Resolved) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.pendingByKey(index, searchKey)
	if e == nil {
		return false
	}
	e.URL = res.URL
	e.Title = res.Title
	e.Duration = res.Duration
	e.pending = false
	return true
}

// FailAt transitions the pending entry at index to a terminal failed state:
// a synthetic title that preserves the search key, zero duration, no locator.
// The resolver loop never revisits it. Returns false if the entry is gone.
func (q *Queue) FailAt(index int, searchKey string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.pendingByKey(index, searchKey)
	if e == nil {
		return false
	}
	e.Title = "[Failed: " + searchKey + "]"
	e.Duration = 0
	e.pending = false
	return true
}

// pendingByKey finds the pending entry expected at index, falling back to a
// scan when the queue shifted underneath the resolver. Caller holds q.mu.
func (q *Queue) pendingByKey(index int, searchKey string) *Entry {
	if index >= 0 && index < len(q.entries) {
		if e := q.entries[index]; e.pending && e.SearchKey == searchKey {
			return e
		}
	}
	for _, e := range q.entries {
		if e.pending && e.SearchKey == searchKey {
			return e
		}
	}
	return nil
}

// HasPending reports whether any entry still awaits resolution.
func (q *Queue) HasPending() bool {
	_, _, ok := q.FirstPending()
	return ok
}

// Clear empties the sequence and the now-playing slot.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = q.entries[:0]
	q.nowPlaying = nil
}

// ClearUpcoming drops every queued entry but leaves now playing untouched.
// Used by repeat, which replays the current track against an emptied queue.
func (q *Queue) ClearUpcoming() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = q.entries[:0]
}

// Shuffle randomizes the order of the queued entries.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.entries), func(i, j int) {
		q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	})
}
