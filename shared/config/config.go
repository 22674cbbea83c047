package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	// Minimum interval between successive submissions from one IP. Policy
	// constants: a restart deliberately clears all running cooldowns.
	OriginalCooldown time.Duration `yaml:"original_cooldown" validate:"required,gt=0"`
	ReplyCooldown    time.Duration `yaml:"reply_cooldown" validate:"required,gt=0"`

	// Ban length applied when moderation tooling does not pass one explicitly.
	DefaultBanLength time.Duration `yaml:"default_ban_length" validate:"required,gt=0"`

	MediaDir string `yaml:"media_dir" validate:"required"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type Private struct {
	Pg Pg `yaml:"pg" validate:"required"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder and
// validates the result. Panics on any problem: a process with a broken
// config should not come up.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	if err := Validate(cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	return cfg
}

func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg.Public); err != nil {
		return fmt.Errorf("public config: %w", err)
	}
	if err := v.Struct(cfg.Private); err != nil {
		return fmt.Errorf("private config: %w", err)
	}
	return nil
}
