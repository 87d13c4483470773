package config

import (
	"log/slog"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DBPathKey    = "db.path"
	ScanPathsKey = "scan.paths"
	WorkersKey   = "scan.workers"
	BatchSizeKey = "scan.batch_size"
	LogLevelKey  = "log.level"
	LLMURLKey    = "llm.url"
	LLMModelKey  = "llm.model"
)

func LoadConfig(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		DBPathKey:    "sdmeta.sqlite",
		WorkersKey:   0, // 0 means NumCPU
		BatchSizeKey: 25,
		LogLevelKey:  "info",
		LLMURLKey:    "https://api.deepseek.com/v1",
		LLMModelKey:  "deepseek-chat",
	}

	k.Load(confmap.Provider(defaults, "."), nil)

	err := k.Load(file.Provider(path), yaml.Parser())
	return k, err
}

// LogLevel maps the configured level name onto a slog level, defaulting
// to info for unknown names.
func LogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
