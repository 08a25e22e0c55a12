package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndFetchCommandHistory(t *testing.T) {
	s := newTestStorage(t)

	rec := CommandHistoryRecord{
		ChannelID: "chan-1",
		GuildName: "Test Guild",
		UserID:    "user-1",
		Username:  "tester",
		Command:   "music",
		Param:     "play",
		Datetime:  time.Now(),
	}
	if err := s.AppendCommandToHistory("guild-1", rec); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	history, err := s.FetchCommandHistory("guild-1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 record, got %d", len(history))
	}
	if history[0].Command != "music" || history[0].Param != "play" {
		t.Errorf("unexpected record: %+v", history[0])
	}
}

func TestCommandHistoryIsTrimmed(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		if err := s.AppendCommandToHistory("guild-1", CommandHistoryRecord{Command: "music"}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	history, err := s.FetchCommandHistory("guild-1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(history) > commandHistoryLimit+1 {
		t.Errorf("history not trimmed: %d records", len(history))
	}
}

func TestLastTextChannel(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.GetLastTextChannel("guild-1"); err == nil {
		t.Error("expected error for unset channel")
	}

	if err := s.SetLastTextChannel("guild-1", "chan-9"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := s.GetLastTextChannel("guild-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "chan-9" {
		t.Errorf("expected chan-9, got %q", got)
	}
}
