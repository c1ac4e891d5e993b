package config

import (
	"fmt"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

type Config struct {
	APIBaseURL  string        `koanf:"api_base_url"`
	APIToken    string        `koanf:"api_token"`
	DefaultView string        `koanf:"default_view"`
	Timeout     time.Duration `koanf:"timeout"`
	LogFile     string        `koanf:"log_file"`
	Debug       bool          `koanf:"debug"`
}

func New() (Config, error) {
	cfg := Config{
		DefaultView: "all",
		Timeout:     20 * time.Second,
		LogFile:     "./duedesk.log",
		Debug:       false,
	}

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
