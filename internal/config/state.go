package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// State holds UI preferences that survive restarts but are not
// configuration: the model last picked and the session last open.
type State struct {
	Model         string `toml:"model"`
	LastSessionID string `toml:"last_session_id"`
}

// NewState creates a state with default values.
func NewState() *State {
	return &State{}
}

// SaveState writes the state to a TOML file.
func SaveState(filePath string, state *State) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create state file %s: %w", filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := toml.NewEncoder(writer).Encode(state); err != nil {
		return fmt.Errorf("failed to encode state to %s: %w", filePath, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush state file %s: %w", filePath, err)
	}
	return nil
}

// LoadState loads the state from a TOML file, returning defaults when the
// file does not exist yet.
func LoadState(filePath string) (*State, error) {
	var state State
	if _, err := toml.DecodeFile(filePath, &state); err != nil {
		if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to decode state file %s: %w", filePath, err)
	}
	return &state, nil
}

// StatePath returns the state file location under the data directory.
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "state.toml")
}
