// Package history persists one record per playback start and exposes the
// read projections the dashboard and the /stats command are built on.
// Writes are fire-and-forget from the player's point of view: a failed insert
// is logged by the caller and never interrupts playback.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Play is one playback-start event.
type Play struct {
	ID        int64
	UserID    string
	Song      string
	URL       string
	Duration  time.Duration
	GuildID   string
	GuildName string
	PlayedAt  time.Time
}

// SongCount is an aggregate row for the top-songs projection.
type SongCount struct {
	Song  string `json:"song"`
	Plays int    `json:"plays"`
}

// GuildCount is an aggregate row for the top-guilds projection.
type GuildCount struct {
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
	Plays     int    `json:"plays"`
}

// Open opens (or creates) the SQLite database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_timeout=5000", path))
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		song TEXT NOT NULL,
		url TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		guild_id TEXT NOT NULL,
		guild_name TEXT,
		played_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one play. There is no update or delete path.
func (s *Store) Record(p Play) error {
	playedAt := p.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO plays (user_id, song, url, duration_seconds, guild_id, guild_name, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Song, p.URL, int(p.Duration.Seconds()), p.GuildID, p.GuildName, playedAt,
	)
	if err != nil {
		return fmt.Errorf("insert play: %w", err)
	}
	return nil
}

// Recent returns the most recent plays, newest first.
func (s *Store) Recent(limit int) ([]Play, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, song, url, duration_seconds, guild_id, guild_name, played_at
		 FROM plays ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlays(rows)
}

// RecentByGuild returns the most recent plays for one guild, newest first.
func (s *Store) RecentByGuild(guildID string, limit int) ([]Play, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, song, url, duration_seconds, guild_id, guild_name, played_at
		 FROM plays WHERE guild_id = ? ORDER BY played_at DESC, id DESC LIMIT ?`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlays(rows)
}

// TopSongs returns play counts grouped by song, most played first.
func (s *Store) TopSongs(limit int) ([]SongCount, error) {
	rows, err := s.db.Query(
		`SELECT song, COUNT(*) AS plays FROM plays
		 GROUP BY song ORDER BY plays DESC, song ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SongCount
	for rows.Next() {
		var sc SongCount
		if err := rows.Scan(&sc.Song, &sc.Plays); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// TopGuilds returns play counts grouped by guild, most active first.
func (s *Store) TopGuilds() ([]GuildCount, error) {
	rows, err := s.db.Query(
		`SELECT guild_id, COALESCE(guild_name, ''), COUNT(*) AS plays FROM plays
		 GROUP BY guild_id ORDER BY plays DESC, guild_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GuildCount
	for rows.Next() {
		var gc GuildCount
		if err := rows.Scan(&gc.GuildID, &gc.GuildName, &gc.Plays); err != nil {
			return nil, err
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

func scanPlays(rows *sql.Rows) ([]Play, error) {
	var out []Play
	for rows.Next() {
		var p Play
		var seconds int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Song, &p.URL, &seconds, &p.GuildID, &p.GuildName, &p.PlayedAt); err != nil {
			return nil, err
		}
		p.Duration = time.Duration(seconds) * time.Second
		out = append(out, p)
	}
	return out, rows.Err()
}
