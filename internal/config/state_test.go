package config

import (
	"path/filepath"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	path := StatePath(t.TempDir())

	state := &State{Model: "gemini-2.5-flash", LastSessionID: "abc-123"}
	if err := SaveState(path, state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if loaded.Model != state.Model || loaded.LastSessionID != state.LastSessionID {
		t.Errorf("loaded = %+v, want %+v", loaded, state)
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "state.toml"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.Model != "" || state.LastSessionID != "" {
		t.Errorf("expected defaults, got %+v", state)
	}
}
