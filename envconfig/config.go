// config.go - core configuration for minibpe
//
// Variables read here:
// - MINIBPE_DEBUG: log level
// - MINIBPE_HOME: data directory
// - MINIBPE_STORE: tokenizer database path
// - MINIBPE_PATTERN: default presplit pattern for training
//
// Tuning knobs live in config_features.go, getters and AsMap in config_utils.go.
package envconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	homeDir   = String("MINIBPE_HOME")
	storePath = String("MINIBPE_STORE")
	pattern   = String("MINIBPE_PATTERN")
)

// Home returns the minibpe data directory.
// Configurable via MINIBPE_HOME
// Default: $HOME/.minibpe
func Home() string {
	if s := homeDir(); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".minibpe")
}

// Store returns the path of the SQLite tokenizer registry.
// Configurable via MINIBPE_STORE
// Default: $MINIBPE_HOME/tokenizers.db
func Store() string {
	if s := storePath(); s != "" {
		return s
	}

	return filepath.Join(Home(), "tokenizers.db")
}

// Pattern returns the name or literal regular expression used to presplit
// training text. "none" disables presplitting.
// Configurable via MINIBPE_PATTERN
// Default: gpt4
func Pattern() string {
	if s := pattern(); s != "" {
		return s
	}

	return "gpt4"
}

// LogLevel returns the log level.
// Configurable via MINIBPE_DEBUG
// Values: unset/false = INFO, 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("MINIBPE_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var returns an environment variable stripped of surrounding quotes and spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
