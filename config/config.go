package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the service configuration. Values come from defaults, then an
// optional config.toml, then environment variables (a .env file is loaded
// first when present).
type Config struct {
	Addr          string
	CollectorURL  string
	RunnerURL     string
	RecordingsDir string
	CaptureDevice string
}

type fileConfig struct {
	Addr          string `toml:"addr"`
	CollectorURL  string `toml:"collector_url"`
	RunnerURL     string `toml:"runner_url"`
	RecordingsDir string `toml:"recordings_dir"`
	CaptureDevice string `toml:"capture_device"`
}

// Load resolves the configuration. It never fails on a missing .env or
// config.toml; those are optional.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}

	cfg := Config{
		Addr:          ":3000",
		CollectorURL:  "ws://localhost:3000/collect",
		RunnerURL:     "http://localhost:8000/execute",
		RecordingsDir: "recordings",
		CaptureDevice: "synthetic",
	}

	if _, err := os.Stat("config.toml"); err == nil {
		var fc fileConfig
		if _, err := toml.DecodeFile("config.toml", &fc); err != nil {
			log.Printf("Ignoring unreadable config.toml: %v", err)
		} else {
			if fc.Addr != "" {
				cfg.Addr = fc.Addr
			}
			if fc.CollectorURL != "" {
				cfg.CollectorURL = fc.CollectorURL
			}
			if fc.RunnerURL != "" {
				cfg.RunnerURL = fc.RunnerURL
			}
			if fc.RecordingsDir != "" {
				cfg.RecordingsDir = fc.RecordingsDir
			}
			if fc.CaptureDevice != "" {
				cfg.CaptureDevice = fc.CaptureDevice
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("COLLECTOR_WS_URL"); v != "" {
		cfg.CollectorURL = v
	}
	if v := os.Getenv("RUNNER_URL"); v != "" {
		cfg.RunnerURL = v
	}
	if v := os.Getenv("RECORDINGS_DIR"); v != "" {
		cfg.RecordingsDir = v
	}
	if v := os.Getenv("CAPTURE_DEVICE"); v != "" {
		cfg.CaptureDevice = v
	}
}
