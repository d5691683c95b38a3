// Package rconfig loads process configuration for the recordcache-cli
// binary: schema file location, watch behavior, and cache backend
// selection, from a config file, the environment, and .env files.
package rconfig

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used for .env discovery; swappable in tests.
var AppFs = afero.NewOsFs()

// Config holds the resolved process configuration.
type Config struct {
	SchemaPath string
	Backend    string // "memory" | "sql"
	DSN        string
	Watch      bool

	// MaxSubOperationDepth guards pathological processor injection
	// chains: recursing past it fails the patch with a catchable error
	// instead of exhausting the goroutine stack.
	MaxSubOperationDepth int
	// EventBufferHint is an advisory initial capacity for a cache's
	// per-event handler slices.
	EventBufferHint int
	// StrictKeyMap controls whether a record whose declared keys are
	// all unset is logged at Warn on pushRecord, instead of silently
	// leaving the key map unable to resolve it.
	StrictKeyMap bool
}

// Load resolves configuration from (in ascending priority) defaults, a
// .recordcache.yaml file, and RECORDCACHE_-prefixed environment
// variables, after loading .env/.env.local into the environment.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".recordcache")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "recordcache"))

	viper.SetEnvPrefix("RECORDCACHE")
	viper.AutomaticEnv()
	viper.BindEnv("dsn", "RECORDCACHE_DSN")

	viper.SetDefault("schema_path", "schema.json")
	viper.SetDefault("backend", "memory")
	viper.SetDefault("watch", false)
	viper.SetDefault("max_sub_operation_depth", 64)
	viper.SetDefault("event_buffer_hint", 0)
	viper.SetDefault("strict_key_map", false)

	_ = viper.ReadInConfig()

	loadEnvFile(".env")
	loadEnvFile(".env.local")

	return &Config{
		SchemaPath:           viper.GetString("schema_path"),
		Backend:              viper.GetString("backend"),
		DSN:                  viper.GetString("dsn"),
		Watch:                viper.GetBool("watch"),
		MaxSubOperationDepth: viper.GetInt("max_sub_operation_depth"),
		EventBufferHint:      viper.GetInt("event_buffer_hint"),
		StrictKeyMap:         viper.GetBool("strict_key_map"),
	}, nil
}

func loadEnvFile(name string) {
	data, err := afero.ReadFile(AppFs, name)
	if err != nil {
		return
	}
	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return
	}
	for k, v := range envMap {
		os.Setenv(k, v)
	}
}

// Save persists cfg to the user config directory as .recordcache.yaml.
func Save(cfg *Config) error {
	viper.Set("schema_path", cfg.SchemaPath)
	viper.Set("backend", cfg.Backend)
	viper.Set("watch", cfg.Watch)
	viper.Set("max_sub_operation_depth", cfg.MaxSubOperationDepth)
	viper.Set("event_buffer_hint", cfg.EventBufferHint)
	viper.Set("strict_key_map", cfg.StrictKeyMap)

	home, err := homedir.Dir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".config", "recordcache")
	if err := AppFs.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	return viper.WriteConfigAs(filepath.Join(configDir, ".recordcache.yaml"))
}
