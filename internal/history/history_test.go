package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Store, plays ...Play) {
	t.Helper()
	for _, p := range plays {
		if err := s.Record(p); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}
}

func TestRecent(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed(t, s,
		Play{UserID: "u1", Song: "Alpha", GuildID: "g1", GuildName: "One", PlayedAt: base},
		Play{UserID: "u2", Song: "Beta", GuildID: "g1", GuildName: "One", PlayedAt: base.Add(time.Minute)},
		Play{UserID: "u1", Song: "Gamma", GuildID: "g2", GuildName: "Two", PlayedAt: base.Add(2 * time.Minute)},
	)

	recent, err := s.Recent(2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recent))
	}
	if recent[0].Song != "Gamma" || recent[1].Song != "Beta" {
		t.Errorf("wrong order: %q then %q", recent[0].Song, recent[1].Song)
	}
}

func TestRecentByGuild(t *testing.T) {
	s := newTestStore(t)

	seed(t, s,
		Play{UserID: "u1", Song: "Alpha", GuildID: "g1"},
		Play{UserID: "u1", Song: "Beta", GuildID: "g2"},
	)

	rows, err := s.RecentByGuild("g2", 10)
	if err != nil {
		t.Fatalf("recent by guild failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Song != "Beta" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestTopSongs(t *testing.T) {
	s := newTestStore(t)

	seed(t, s,
		Play{UserID: "u1", Song: "Alpha", GuildID: "g1"},
		Play{UserID: "u2", Song: "Alpha", GuildID: "g1"},
		Play{UserID: "u1", Song: "Beta", GuildID: "g1"},
	)

	top, err := s.TopSongs(10)
	if err != nil {
		t.Fatalf("top songs failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].Song != "Alpha" || top[0].Plays != 2 {
		t.Errorf("unexpected first row: %+v", top[0])
	}
}

func TestTopGuilds(t *testing.T) {
	s := newTestStore(t)

	seed(t, s,
		Play{UserID: "u1", Song: "Alpha", GuildID: "g1", GuildName: "One"},
		Play{UserID: "u1", Song: "Beta", GuildID: "g2", GuildName: "Two"},
		Play{UserID: "u1", Song: "Gamma", GuildID: "g2", GuildName: "Two"},
	)

	top, err := s.TopGuilds()
	if err != nil {
		t.Fatalf("top guilds failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].GuildID != "g2" || top[0].Plays != 2 {
		t.Errorf("unexpected first row: %+v", top[0])
	}
}

func TestDurationRoundTrip(t *testing.T) {
	s := newTestStore(t)

	seed(t, s, Play{UserID: "u1", Song: "Alpha", GuildID: "g1", Duration: 245 * time.Second})

	rows, err := s.Recent(1)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if rows[0].Duration != 245*time.Second {
		t.Errorf("expected 245s, got %v", rows[0].Duration)
	}
}
