package config

import "testing"

func TestNew_WithValidToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token-123")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DiscordToken != "test-token-123" {
		t.Errorf("expected token %q, got %q", "test-token-123", cfg.DiscordToken)
	}
	if cfg.StoragePath != "datastore.json" {
		t.Errorf("expected default storage path, got %q", cfg.StoragePath)
	}
	if cfg.HistoryDBPath != "quaver.db" {
		t.Errorf("expected default history db path, got %q", cfg.HistoryDBPath)
	}
	if cfg.DashboardAddr != ":8787" {
		t.Errorf("expected default dashboard addr, got %q", cfg.DashboardAddr)
	}
}

func TestNew_WithMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := New()
	if err == nil {
		t.Error("expected error for missing token, got nil")
	}
}

func TestSpotifyEnabled(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "t")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SpotifyEnabled() {
		t.Error("expected Spotify to be disabled without credentials")
	}

	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")

	cfg, err = New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SpotifyEnabled() {
		t.Error("expected Spotify to be enabled with credentials")
	}
}
