package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration for the MAK service.
type Config struct {
	// Port the HTTP API listens on.
	Port int `json:"port"`
	// DataDir is where chat history and preferences are stored.
	DataDir string `json:"dataDir"`
	// Model is the Gemini model id used for new conversations.
	Model string `json:"model"`
	// APIKey is the Gemini API credential. Its absence is fatal to the
	// chat feature, not to the process.
	APIKey string `json:"-"`
}

// Load reads configuration from an optional config file, MAK_* environment
// variables, and defaults, in ascending precedence of env over file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MAK")
	v.AutomaticEnv()

	v.SetDefault("port", 8420)
	v.SetDefault("model", "gemini-2.5-flash")
	v.SetDefault("data_dir", defaultDataDir())

	v.SetConfigName("mak")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "mak"))
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:    v.GetInt("port"),
		DataDir: v.GetString("data_dir"),
		Model:   v.GetString("model"),
		APIKey:  os.Getenv("GEMINI_API_KEY"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mak"
	}
	return filepath.Join(home, ".mak")
}
