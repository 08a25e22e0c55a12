package music

import (
	"strings"
	"testing"
	"time"

	"quaver/internal/music/queue"
)

func TestAlreadyQueuedNoticeFindsByTitle(t *testing.T) {
	q := queue.New()
	q.Append(
		queue.NewResolvedEntry(queue.Resolved{URL: "https://yt/a", Title: "First Song", Duration: 2 * time.Minute}, "u1", "alice", "first song"),
		queue.NewResolvedEntry(queue.Resolved{URL: "https://yt/b", Title: "Second Song", Duration: 3 * time.Minute}, "u1", "alice", "second song"),
	)

	notice, ok := alreadyQueuedNotice(q, "second")
	if !ok {
		t.Fatal("expected a queued match")
	}
	if !strings.Contains(notice, "Second Song") {
		t.Errorf("notice = %q, want the matched title", notice)
	}
	if !strings.Contains(notice, "position 2") {
		t.Errorf("notice = %q, want position 2", notice)
	}
	// ETA is the summed length of everything ahead of the match.
	if !strings.Contains(notice, "02:00") {
		t.Errorf("notice = %q, want a 02:00 ETA", notice)
	}
}

func TestAlreadyQueuedNoticeMatchesPendingSearchKey(t *testing.T) {
	q := queue.New()
	q.Append(queue.NewPendingEntry("never gonna give you up", "u1", "alice"))

	notice, ok := alreadyQueuedNotice(q, "Never Gonna")
	if !ok {
		t.Fatal("expected the pending entry to match by search key")
	}
	if !strings.Contains(notice, "position 1") {
		t.Errorf("notice = %q, want position 1", notice)
	}
}

func TestAlreadyQueuedNoticeMissesFreshInput(t *testing.T) {
	q := queue.New()
	q.Append(queue.NewResolvedEntry(queue.Resolved{URL: "https://yt/a", Title: "First Song", Duration: time.Minute}, "u1", "alice", "first song"))

	if notice, ok := alreadyQueuedNotice(q, "totally different"); ok {
		t.Errorf("unexpected match: %q", notice)
	}
}
