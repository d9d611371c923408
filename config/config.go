package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Storage backends for the task store.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// DbConfig represents the configuration settings for the sqlite task store.
type DbConfig struct {
	Path string `json:"path" toml:"path"`
}

// Config represents the configuration settings of the application.
type Config struct {
	Pepper string `json:"pepper" toml:"pepper"`
	Port   int    `json:"port" toml:"port"`

	// Storage selects the task store backend: memory or sqlite.
	Storage        string   `json:"storage" toml:"storage"`
	DataFile       string   `json:"dataFile" toml:"data_file"`
	UseFileStorage bool     `json:"useFileStorage" toml:"use_file_storage"`
	Database       DbConfig `json:"database" toml:"database"`

	// Client settings.
	APIURL  string `json:"apiUrl" toml:"api_url"`
	LocalDB string `json:"localDb" toml:"local_db"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Port:     9090,
		Storage:  StorageMemory,
		DataFile: "./data/tasks.json",
		Database: DbConfig{Path: "./database/tasks.db"},
		APIURL:   "http://localhost:9090",
		LocalDB:  "./database/local.db",
	}
}

// LoadConfig loads the configuration from .config. A missing file yields the
// defaults.
func LoadConfig() (Config, error) {
	c, err := LoadConfigFile(".config")
	if os.IsNotExist(err) {
		c = Default()
		applyEnv(&c)
		return c, nil
	}
	return c, err
}

// LoadConfigFile loads the configuration from path. Files ending in .toml are
// decoded as TOML, everything else as JSON.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return Config{}, fmt.Errorf("error reading %s: %w", path, err)
	}

	c := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &c); err != nil {
			return Config{}, fmt.Errorf("error decoding %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("error unmarshalling %s: %w", path, err)
		}
	}
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	applyEnv(&c)
	return c, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func applyEnv(c *Config) {
	if os.Getenv("USE_FILE_STORAGE") == "true" {
		c.UseFileStorage = true
	}
	if v := os.Getenv("TODO_API_URL"); v != "" {
		c.APIURL = v
	}
}
