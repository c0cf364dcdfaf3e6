package app

import (
	"fmt"
	"log"

	"github.com/entrepeneur4lyf/mak/internal/config"
	"github.com/entrepeneur4lyf/mak/internal/llm/providers"
	"github.com/entrepeneur4lyf/mak/internal/orchestrator"
	"github.com/entrepeneur4lyf/mak/internal/storage"
)

// ThemeKey is the storage key for the UI theme preference.
const ThemeKey = "mak-theme"

// App wires the conversation engine together: durable storage, the session
// store, the inference provider, and the turn controller.
type App struct {
	Config     *config.Config
	KV         *storage.FileKV
	Store      *storage.HistoryStore
	Controller *orchestrator.Controller
	State      *config.State
}

// New builds the application from configuration. Chat history is loaded
// eagerly; a corrupt history is reported and replaced with an empty
// collection rather than failing startup.
func New(cfg *config.Config) (*App, error) {
	kv, err := storage.NewFileKV(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	store := storage.NewHistoryStore(kv)
	if err := store.Load(); err != nil {
		log.Printf("Warning: could not load chat history: %v", err)
	}

	state, err := config.LoadState(config.StatePath(cfg.DataDir))
	if err != nil {
		log.Printf("Warning: could not load ui state: %v", err)
		state = config.NewState()
	}

	model := cfg.Model
	if state.Model != "" {
		model = state.Model
	}
	provider := providers.NewGeminiProvider(cfg.APIKey, model)

	return &App{
		Config:     cfg,
		KV:         kv,
		Store:      store,
		Controller: orchestrator.New(store, provider),
		State:      state,
	}, nil
}

// Theme returns the stored theme preference, defaulting to "light".
func (a *App) Theme() string {
	theme, ok, err := a.KV.GetItem(ThemeKey)
	if err != nil {
		log.Printf("Warning: could not read theme preference: %v", err)
	}
	if !ok || (theme != "light" && theme != "dark") {
		return "light"
	}
	return theme
}

// SetTheme stores the theme preference. Only "light" and "dark" are valid.
func (a *App) SetTheme(theme string) error {
	if theme != "light" && theme != "dark" {
		return fmt.Errorf("invalid theme %q", theme)
	}
	return a.KV.SetItem(ThemeKey, theme)
}

// SaveState persists the UI state file.
func (a *App) SaveState() error {
	return config.SaveState(config.StatePath(a.Config.DataDir), a.State)
}
